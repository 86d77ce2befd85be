package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

const reportTaskColumns = `id, task_type, params, status, attempts, result, error, requested_by,
	run_at, locked_at, finished_at, created_at, updated_at`

// ReportTaskRepository stores the report task queue
type ReportTaskRepository struct {
	db *pgxpool.Pool
}

// NewReportTaskRepository creates a new ReportTaskRepository
func NewReportTaskRepository(db *pgxpool.Pool) *ReportTaskRepository {
	return &ReportTaskRepository{db: db}
}

// Create queues a task. A zero ID is replaced by a new random one.
func (r *ReportTaskRepository) Create(ctx context.Context, task *models.ReportTask) (uuid.UUID, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if len(task.Params) == 0 {
		task.Params = json.RawMessage(`{}`)
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO report_tasks (id, task_type, params, status, requested_by)
		VALUES ($1, $2, $3, $4, $5)`,
		task.ID, task.TaskType, task.Params, models.TaskPending, task.RequestedBy)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error creating report task: %w", err)
	}
	return task.ID, nil
}

// GetByID retrieves a task
func (r *ReportTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportTask, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reportTaskColumns+` FROM report_tasks WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	task, err := pgx.CollectExactlyOneRow(rows, scanReportTask)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return &task, nil
}

// ClaimNext marks the oldest runnable task STARTED and returns it. Tasks
// stuck in STARTED for longer than staleAfter are runnable again while they
// have attempts left. It returns nil when nothing is runnable.
func (r *ReportTaskRepository) ClaimNext(ctx context.Context, staleAfter time.Duration, maxAttempts int) (*models.ReportTask, error) {
	staleCutoff := time.Now().Add(-staleAfter)
	rows, err := r.db.Query(ctx, `
		UPDATE report_tasks SET
			status = $1,
			attempts = attempts + 1,
			locked_at = NOW(),
			updated_at = NOW()
		WHERE id = (
			SELECT id FROM report_tasks
			WHERE run_at <= NOW()
				AND (status = $2 OR (status = $1 AND locked_at < $3 AND attempts < $4))
			ORDER BY run_at, created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+reportTaskColumns,
		models.TaskStarted, models.TaskPending, staleCutoff, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("error claiming report task: %w", err)
	}
	task, err := pgx.CollectExactlyOneRow(rows, scanReportTask)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return &task, nil
}

// Complete stores the result of a successful run. attempt is the attempt
// number the caller claimed; once the task was reclaimed by another worker
// the update matches nothing and ErrTaskClaimLost is returned.
func (r *ReportTaskRepository) Complete(ctx context.Context, id uuid.UUID, attempt int, result json.RawMessage) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE report_tasks SET status = $2, result = $3, error = '', finished_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4 AND attempts = $5`,
		id, models.TaskSuccess, result, models.TaskStarted, attempt)
	if err != nil {
		return fmt.Errorf("error completing report task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskClaimLost
	}
	return nil
}

// Fail records a failed run of the given attempt. With retryAt set the task
// goes back to PENDING and runs again at that time; otherwise it ends as
// FAILURE.
func (r *ReportTaskRepository) Fail(ctx context.Context, id uuid.UUID, attempt int, message string, retryAt *time.Time) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if retryAt != nil {
		tag, err = r.db.Exec(ctx, `
			UPDATE report_tasks SET status = $2, error = $3, run_at = $4, locked_at = NULL, updated_at = NOW()
			WHERE id = $1 AND status = $5 AND attempts = $6`,
			id, models.TaskPending, message, *retryAt, models.TaskStarted, attempt)
	} else {
		tag, err = r.db.Exec(ctx, `
			UPDATE report_tasks SET status = $2, error = $3, finished_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $4 AND attempts = $5`,
			id, models.TaskFailure, message, models.TaskStarted, attempt)
	}
	if err != nil {
		return fmt.Errorf("error failing report task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskClaimLost
	}
	return nil
}

// FailAbandoned ends STARTED tasks that went stale with no attempts left
func (r *ReportTaskRepository) FailAbandoned(ctx context.Context, staleAfter time.Duration, maxAttempts int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE report_tasks SET status = $1, error = 'abandoned after too many attempts', finished_at = NOW(), updated_at = NOW()
		WHERE status = $2 AND locked_at < $3 AND attempts >= $4`,
		models.TaskFailure, models.TaskStarted, time.Now().Add(-staleAfter), maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("error failing abandoned tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteFinishedBefore removes finished tasks older than cutoff
func (r *ReportTaskRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM report_tasks WHERE status IN ($1, $2) AND finished_at < $3`,
		models.TaskSuccess, models.TaskFailure, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting finished tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReportTask(row pgx.CollectableRow) (models.ReportTask, error) {
	var t models.ReportTask
	var result []byte
	err := row.Scan(&t.ID, &t.TaskType, &t.Params, &t.Status, &t.Attempts, &result, &t.Error,
		&t.RequestedBy, &t.RunAt, &t.LockedAt, &t.FinishedAt, &t.CreatedAt, &t.UpdatedAt)
	t.Result = result
	return t, err
}
