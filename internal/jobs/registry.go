// Package jobs runs queued report tasks on a pool of workers.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tustunkok/pc-link/internal/app/models"
)

// Handler runs one task and returns the JSON stored as its result
type Handler func(ctx context.Context, task *models.ReportTask) (json.RawMessage, error)

// Registry maps task types to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[models.TaskType]Handler
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.TaskType]Handler)}
}

// Register adds the handler for a task type. Each type takes one handler.
func (r *Registry) Register(taskType models.TaskType, h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler for task type %q", taskType)
	}
	if taskType == "" {
		return errors.New("empty task type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[taskType]; exists {
		return fmt.Errorf("handler already registered for task type %q", taskType)
	}
	r.handlers[taskType] = h
	return nil
}

// Get returns the handler for a task type
func (r *Registry) Get(taskType models.TaskType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[taskType]
	return h, ok
}

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the task fails without further attempts
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type panicError struct {
	value interface{}
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }
