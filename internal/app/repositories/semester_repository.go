package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/dberrors"
)

var semesterColumns = []string{"id", "year_interval", "period_name", "period_order_value", "active"}

// SemesterRepository handles database operations for semesters
type SemesterRepository struct {
	db *pgxpool.Pool
}

// NewSemesterRepository creates a new SemesterRepository
func NewSemesterRepository(db *pgxpool.Pool) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// Create inserts a semester and returns its id
func (r *SemesterRepository) Create(ctx context.Context, s *models.Semester) (int64, error) {
	sql, args, err := psql.Insert("semesters").
		Columns("year_interval", "period_name", "period_order_value", "active").
		Values(s.YearInterval, s.PeriodName, s.PeriodOrderValue, s.Active).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, buildError(err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_semesters_label") {
			return 0, apperrors.NewConflictError(fmt.Sprintf("Semester %s already exists.", s.Label()))
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return id, nil
}

// GetByID retrieves a semester by ID
func (r *SemesterRepository) GetByID(ctx context.Context, id int64) (*models.Semester, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByLabel retrieves a semester by year interval and period name
func (r *SemesterRepository) GetByLabel(ctx context.Context, yearInterval, periodName string) (*models.Semester, error) {
	return r.getOne(ctx, squirrel.Eq{"year_interval": yearInterval, "period_name": periodName})
}

func (r *SemesterRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.Semester, error) {
	sql, args, err := psql.Select(semesterColumns...).From("semesters").Where(where).ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[models.Semester])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSemesterNotFound
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return &s, nil
}

// List returns semesters in chronological order, newest first
func (r *SemesterRepository) List(ctx context.Context, activeOnly bool) ([]models.Semester, error) {
	query := psql.Select(semesterColumns...).From("semesters").OrderBy("period_order_value DESC")
	if activeOnly {
		query = query.Where(squirrel.Eq{"active": true})
	}
	return r.list(ctx, query)
}

// ListByIDs returns the given semesters oldest first. Missing ids are an error.
func (r *SemesterRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Semester, error) {
	semesters, err := r.list(ctx, psql.Select(semesterColumns...).
		From("semesters").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("period_order_value"))
	if err != nil {
		return nil, err
	}
	if len(semesters) != len(uniqueIDs(ids)) {
		return nil, apperrors.ErrSemesterNotFound
	}
	return semesters, nil
}

// SetActive opens or closes a semester for uploads
func (r *SemesterRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := execBuilt(ctx, r.db, psql.Update("semesters").Set("active", active).Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSemesterNotFound
	}
	return nil
}

func (r *SemesterRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]models.Semester, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	semesters, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Semester])
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return semesters, nil
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
