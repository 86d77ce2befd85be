package locker

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Locker, used when no Redis address is configured
type Memory struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch      chan struct{}
	waiters int
}

var _ Locker = (*Memory)(nil)

// NewMemory creates an empty in-process locker
func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*entry)}
}

// Acquire implements Locker
func (m *Memory) Acquire(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.waiters++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e, false)
		return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.release(key, e, true) })
	}, nil
}

func (m *Memory) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	m.mu.Lock()
	e.waiters--
	if e.waiters == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}
