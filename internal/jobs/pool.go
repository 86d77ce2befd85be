package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// Queue is the task storage the pool works on
type Queue interface {
	ClaimNext(ctx context.Context, staleAfter time.Duration, maxAttempts int) (*models.ReportTask, error)
	// Complete and Fail only apply while the task is still held by the given
	// attempt; otherwise they return apperrors.ErrTaskClaimLost.
	Complete(ctx context.Context, id uuid.UUID, attempt int, result json.RawMessage) error
	Fail(ctx context.Context, id uuid.UUID, attempt int, message string, retryAt *time.Time) error
	FailAbandoned(ctx context.Context, staleAfter time.Duration, maxAttempts int) (int64, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config tunes the pool
type Config struct {
	Concurrency  int
	PollInterval time.Duration
	MaxAttempts  int
	StaleAfter   time.Duration
	// RetryDelay is multiplied by the attempt number
	RetryDelay time.Duration
	// SweepInterval is how often abandoned and expired tasks are cleaned up
	SweepInterval time.Duration
	// Retention keeps finished tasks this long; zero keeps them forever
	Retention time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 30 * time.Minute
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	return c
}

// Pool claims tasks from a Queue and runs them with the registered handlers
type Pool struct {
	queue    Queue
	registry *Registry
	cfg      Config
	now      func() time.Time
	log      zerolog.Logger
}

// NewPool creates a new Pool
func NewPool(queue Queue, registry *Registry, cfg Config) *Pool {
	return &Pool{
		queue:    queue,
		registry: registry,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		log:      logger.Component("jobs"),
	}
}

// Run starts the workers and the sweeper and blocks until ctx is done. A
// task that is running when ctx ends is allowed to finish.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info().
		Int("concurrency", p.cfg.Concurrency).
		Dur("poll_interval", p.cfg.PollInterval).
		Int("max_attempts", p.cfg.MaxAttempts).
		Msg("Starting report workers")

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Concurrency; i++ {
		workerID := i + 1
		g.Go(func() error {
			p.loop(ctx, workerID)
			return nil
		})
	}
	g.Go(func() error {
		p.sweepLoop(ctx)
		return nil
	})

	err := g.Wait()
	p.log.Info().Msg("Report workers stopped")
	return err
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// drain the queue before waiting for the next tick
		for ctx.Err() == nil && p.RunOnce(ctx, workerID) {
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims and runs a single task. It reports whether a task was
// claimed.
func (p *Pool) RunOnce(ctx context.Context, workerID int) bool {
	task, err := p.queue.ClaimNext(ctx, p.cfg.StaleAfter, p.cfg.MaxAttempts)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Warn().Err(err).Int("worker_id", workerID).Msg("Failed to claim report task")
		}
		return false
	}
	if task == nil {
		return false
	}

	// the task outlives a shutdown so it is not left STARTED
	runCtx := context.WithoutCancel(ctx)
	log := p.log.With().
		Int("worker_id", workerID).
		Str("task_id", task.ID.String()).
		Str("task_type", string(task.TaskType)).
		Int("attempt", task.Attempts).
		Logger()

	start := p.now()
	result, err := p.execute(runCtx, task)
	if err == nil {
		if err := p.queue.Complete(runCtx, task.ID, task.Attempts, result); err != nil {
			if errors.Is(err, apperrors.ErrTaskClaimLost) {
				log.Warn().Msg("Report task was reclaimed, result discarded")
				return true
			}
			log.Error().Err(err).Msg("Failed to store report result")
			return true
		}
		log.Info().Dur("took", p.now().Sub(start)).Msg("Report task finished")
		return true
	}

	var retryAt *time.Time
	if !IsPermanent(err) && task.Attempts < p.cfg.MaxAttempts {
		at := p.now().Add(p.cfg.RetryDelay * time.Duration(task.Attempts))
		retryAt = &at
	}
	if ferr := p.queue.Fail(runCtx, task.ID, task.Attempts, err.Error(), retryAt); ferr != nil {
		if errors.Is(ferr, apperrors.ErrTaskClaimLost) {
			log.Warn().Err(err).Msg("Report task was reclaimed, failure discarded")
			return true
		}
		log.Error().Err(ferr).Msg("Failed to record report failure")
		return true
	}

	event := log.Warn().Err(err)
	if retryAt != nil {
		event.Time("retry_at", *retryAt).Msg("Report task failed, will retry")
	} else {
		event.Msg("Report task failed")
	}
	return true
}

func (p *Pool) execute(ctx context.Context, task *models.ReportTask) (result json.RawMessage, err error) {
	h, ok := p.registry.Get(task.TaskType)
	if !ok {
		return nil, Permanent(fmt.Errorf("no handler registered for task type %q", task.TaskType))
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("task_id", task.ID.String()).
				Interface("panic", r).
				Msg("Report handler panic")
			result, err = nil, Permanent(&panicError{value: r})
		}
	}()
	return h(ctx, task)
}

func (p *Pool) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep fails tasks abandoned by crashed workers and deletes finished tasks
// past retention
func (p *Pool) Sweep(ctx context.Context) {
	if n, err := p.queue.FailAbandoned(ctx, p.cfg.StaleAfter, p.cfg.MaxAttempts); err != nil {
		p.log.Warn().Err(err).Msg("Failed to fail abandoned tasks")
	} else if n > 0 {
		p.log.Warn().Int64("tasks", n).Msg("Abandoned report tasks failed")
	}

	if p.cfg.Retention <= 0 {
		return
	}
	if n, err := p.queue.DeleteFinishedBefore(ctx, p.now().Add(-p.cfg.Retention)); err != nil {
		p.log.Warn().Err(err).Msg("Failed to delete old tasks")
	} else if n > 0 {
		p.log.Info().Int64("tasks", n).Msg("Old report tasks deleted")
	}
}
