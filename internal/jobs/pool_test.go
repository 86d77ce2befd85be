package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/report"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memQueue is an in-memory Queue with the same claim rules as the database
type memQueue struct {
	mu        sync.Mutex
	tasks     []*models.ReportTask
	abandoned int64
	cutoffs   []time.Time
}

func (q *memQueue) add(taskType models.TaskType, params interface{}) uuid.UUID {
	raw, _ := json.Marshal(params)
	q.mu.Lock()
	defer q.mu.Unlock()
	t := &models.ReportTask{ID: uuid.New(), TaskType: taskType, Params: raw, Status: models.TaskPending}
	q.tasks = append(q.tasks, t)
	return t.ID
}

func (q *memQueue) get(id uuid.UUID) models.ReportTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.ID == id {
			return *t
		}
	}
	return models.ReportTask{}
}

func (q *memQueue) ClaimNext(_ context.Context, _ time.Duration, _ int) (*models.ReportTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for _, t := range q.tasks {
		if t.Status == models.TaskPending && !t.RunAt.After(now) {
			t.Status = models.TaskStarted
			t.Attempts++
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// held finds the task while the given attempt still owns it
func (q *memQueue) held(id uuid.UUID, attempt int) (*models.ReportTask, error) {
	for _, t := range q.tasks {
		if t.ID == id && t.Status == models.TaskStarted && t.Attempts == attempt {
			return t, nil
		}
	}
	return nil, apperrors.ErrTaskClaimLost
}

// reclaim hands a running task to another worker, as a stale claim would
func (q *memQueue) reclaim(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.ID == id {
			t.Attempts++
		}
	}
}

func (q *memQueue) Complete(_ context.Context, id uuid.UUID, attempt int, result json.RawMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, err := q.held(id, attempt)
	if err != nil {
		return err
	}
	t.Status = models.TaskSuccess
	t.Result = result
	return nil
}

func (q *memQueue) Fail(_ context.Context, id uuid.UUID, attempt int, message string, retryAt *time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, err := q.held(id, attempt)
	if err != nil {
		return err
	}
	t.Error = message
	if retryAt != nil {
		t.Status = models.TaskPending
		t.RunAt = *retryAt
	} else {
		t.Status = models.TaskFailure
	}
	return nil
}

func (q *memQueue) FailAbandoned(_ context.Context, _ time.Duration, _ int) (int64, error) {
	return q.abandoned, nil
}

func (q *memQueue) DeleteFinishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cutoffs = append(q.cutoffs, cutoff)
	return 0, nil
}

type fakeBuilder struct {
	exportErr error
	calls     atomic.Int32
}

func (b *fakeBuilder) Export(_ context.Context, params models.ExportParams) (*report.Table, error) {
	b.calls.Add(1)
	if b.exportErr != nil {
		return nil, b.exportErr
	}
	return report.Build(report.Input{
		Outcomes: []report.OutcomeCourses{{Outcome: "PO1", Courses: []string{"CE101"}}},
		Students: []report.StudentRef{{No: "44629785700", Name: "Ada"}},
	}), nil
}

func (b *fakeBuilder) Diff(_ context.Context, _ models.DiffParams) (*report.DiffResult, error) {
	b.calls.Add(1)
	return &report.DiffResult{Identical: true, FirstLabel: "2020-2021 Fall", SecondLabel: "2020-2021 Spring"}, nil
}

func newTestPool(t *testing.T, q *memQueue, builder ReportBuilder, maxAttempts int) *Pool {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterReportHandlers(reg, builder))
	return NewPool(q, reg, Config{
		Concurrency:  2,
		PollInterval: 5 * time.Millisecond,
		MaxAttempts:  maxAttempts,
		Retention:    time.Hour,
	})
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterReportHandlers(reg, &fakeBuilder{}))

	err := reg.Register(models.TaskTypeExport, func(context.Context, *models.ReportTask) (json.RawMessage, error) {
		return nil, nil
	})
	assert.Error(t, err)
	assert.Error(t, reg.Register("other", nil))

	_, ok := reg.Get(models.TaskTypeDiff)
	assert.True(t, ok)
}

func TestRunOnceStoresResults(t *testing.T) {
	q := &memQueue{}
	pool := newTestPool(t, q, &fakeBuilder{}, 3)
	export := q.add(models.TaskTypeExport, models.ExportParams{SemesterIDs: []int64{1}})
	diff := q.add(models.TaskTypeDiff, models.DiffParams{FirstSemesterIDs: []int64{1}, SecondSemesterIDs: []int64{2}})

	assert.True(t, pool.RunOnce(context.Background(), 1))
	assert.True(t, pool.RunOnce(context.Background(), 1))
	assert.False(t, pool.RunOnce(context.Background(), 1), "the queue is empty")

	done := q.get(export)
	require.Equal(t, models.TaskSuccess, done.Status)
	var table report.Table
	require.NoError(t, json.Unmarshal(done.Result, &table))
	assert.Equal(t, []string{"PO1"}, table.Outcomes())

	var result report.DiffResult
	require.NoError(t, json.Unmarshal(q.get(diff).Result, &result))
	assert.True(t, result.Identical)
	assert.Equal(t, "2020-2021 Spring", result.SecondLabel)
}

func TestRunOnceRetriesUntilAttemptsRunOut(t *testing.T) {
	q := &memQueue{}
	builder := &fakeBuilder{exportErr: errors.New("database went away")}
	pool := newTestPool(t, q, builder, 2)
	id := q.add(models.TaskTypeExport, models.ExportParams{SemesterIDs: []int64{1}})

	require.True(t, pool.RunOnce(context.Background(), 1))
	task := q.get(id)
	assert.Equal(t, models.TaskPending, task.Status, "first failure is retried")
	assert.Equal(t, "database went away", task.Error)

	require.True(t, pool.RunOnce(context.Background(), 1))
	assert.Equal(t, models.TaskFailure, q.get(id).Status)
	assert.Equal(t, int32(2), builder.calls.Load())
}

func TestRunOncePermanentFailures(t *testing.T) {
	tests := []struct {
		name     string
		taskType models.TaskType
		params   interface{}
		builder  *fakeBuilder
		handler  Handler
		wantErr  string
	}{
		{
			name:     "missing semester",
			taskType: models.TaskTypeExport,
			params:   models.ExportParams{SemesterIDs: []int64{1}},
			builder:  &fakeBuilder{exportErr: apperrors.ErrSemesterNotFound},
			wantErr:  "semester not found",
		},
		{
			name:     "bad parameters",
			taskType: models.TaskTypeExport,
			params:   []string{"not", "an", "object"},
			builder:  &fakeBuilder{},
			wantErr:  "invalid export parameters",
		},
		{
			name:     "unknown task type",
			taskType: "unknown",
			params:   map[string]int{},
			builder:  &fakeBuilder{},
			wantErr:  "no handler registered",
		},
		{
			name:     "panic",
			taskType: "explode",
			params:   map[string]int{},
			builder:  &fakeBuilder{},
			handler: func(context.Context, *models.ReportTask) (json.RawMessage, error) {
				panic("boom")
			},
			wantErr: "panic: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &memQueue{}
			pool := newTestPool(t, q, tt.builder, 5)
			if tt.handler != nil {
				require.NoError(t, pool.registry.Register(tt.taskType, tt.handler))
			}
			id := q.add(tt.taskType, tt.params)

			require.True(t, pool.RunOnce(context.Background(), 1))
			task := q.get(id)
			assert.Equal(t, models.TaskFailure, task.Status)
			assert.Contains(t, task.Error, tt.wantErr)
		})
	}
}

func TestRunOnceDiscardsResultOfReclaimedTask(t *testing.T) {
	for _, fail := range []bool{false, true} {
		q := &memQueue{}
		pool := newTestPool(t, q, &fakeBuilder{}, 5)
		require.NoError(t, pool.registry.Register("slow", func(_ context.Context, task *models.ReportTask) (json.RawMessage, error) {
			q.reclaim(task.ID)
			if fail {
				return nil, errors.New("timeout")
			}
			return json.RawMessage(`{"late":true}`), nil
		}))
		id := q.add("slow", map[string]int{})

		require.True(t, pool.RunOnce(context.Background(), 1))
		task := q.get(id)
		assert.Equal(t, models.TaskStarted, task.Status, "the newer claim still owns the task")
		assert.Equal(t, 2, task.Attempts)
		assert.Empty(t, task.Result)
		assert.Empty(t, task.Error)
	}
}

func TestRunDrainsQueueAndStops(t *testing.T) {
	q := &memQueue{}
	pool := newTestPool(t, q, &fakeBuilder{}, 3)
	ids := []uuid.UUID{
		q.add(models.TaskTypeExport, models.ExportParams{SemesterIDs: []int64{1}}),
		q.add(models.TaskTypeExport, models.ExportParams{SemesterIDs: []int64{2}}),
		q.add(models.TaskTypeDiff, models.DiffParams{FirstSemesterIDs: []int64{1}, SecondSemesterIDs: []int64{2}}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	assert.Eventually(t, func() bool {
		for _, id := range ids {
			if q.get(id).Status != models.TaskSuccess {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop")
	}
}

func TestSweepDeletesPastRetention(t *testing.T) {
	q := &memQueue{abandoned: 1}
	pool := newTestPool(t, q, &fakeBuilder{}, 3)
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	pool.now = func() time.Time { return now }

	pool.Sweep(context.Background())
	require.Len(t, q.cutoffs, 1)
	assert.Equal(t, now.Add(-time.Hour), q.cutoffs[0])
}
