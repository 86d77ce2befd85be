package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/db"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

// OutcomeFileRepository handles database operations for stored uploads
type OutcomeFileRepository struct {
	db *pgxpool.Pool
}

// NewOutcomeFileRepository creates a new OutcomeFileRepository
func NewOutcomeFileRepository(db *pgxpool.Pool) *OutcomeFileRepository {
	return &OutcomeFileRepository{db: db}
}

func outcomeFileSelect() squirrel.SelectBuilder {
	return psql.Select(
		"f.id", "f.user_id", "f.semester_id", "f.course_id", "f.file_path", "f.original_name",
		"f.uploaded_at", "f.updated_at", "u.username", "c.code",
		"s.year_interval || ' ' || s.period_name",
	).
		From("program_outcome_files f").
		Join("users u ON u.id = f.user_id").
		Join("courses c ON c.id = f.course_id").
		Join("semesters s ON s.id = f.semester_id")
}

func scanOutcomeFile(row pgx.CollectableRow) (models.ProgramOutcomeFile, error) {
	var f models.ProgramOutcomeFile
	err := row.Scan(&f.ID, &f.UserID, &f.SemesterID, &f.CourseID, &f.FilePath, &f.OriginalName,
		&f.UploadedAt, &f.UpdatedAt, &f.Username, &f.CourseCode, &f.SemesterLabel)
	return f, err
}

// Create inserts a file record and returns its id
func (r *OutcomeFileRepository) Create(ctx context.Context, f *models.ProgramOutcomeFile) (int64, error) {
	sql, args, err := psql.Insert("program_outcome_files").
		Columns("user_id", "semester_id", "course_id", "file_path", "original_name").
		Values(f.UserID, f.SemesterID, f.CourseID, f.FilePath, f.OriginalName).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, buildError(err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("error creating file record: %w", err)
	}
	return id, nil
}

// GetByID retrieves a file record by ID
func (r *OutcomeFileRepository) GetByID(ctx context.Context, id int64) (*models.ProgramOutcomeFile, error) {
	return r.getOne(ctx, outcomeFileSelect().Where(squirrel.Eq{"f.id": id}))
}

// FindByOwner returns the newest file a user uploaded for a course in a semester
func (r *OutcomeFileRepository) FindByOwner(ctx context.Context, userID, semesterID, courseID int64) (*models.ProgramOutcomeFile, error) {
	return r.getOne(ctx, outcomeFileSelect().
		Where(squirrel.Eq{"f.user_id": userID, "f.semester_id": semesterID, "f.course_id": courseID}).
		OrderBy("f.uploaded_at DESC").
		Limit(1))
}

func (r *OutcomeFileRepository) getOne(ctx context.Context, query squirrel.SelectBuilder) (*models.ProgramOutcomeFile, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	f, err := pgx.CollectExactlyOneRow(rows, scanOutcomeFile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOutcomeFileNotFound
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return &f, nil
}

// List returns a page of file records, newest first. A nil userID lists
// every user's files.
func (r *OutcomeFileRepository) List(ctx context.Context, userID *int64, offset, limit uint64) ([]models.ProgramOutcomeFile, int64, error) {
	query := outcomeFileSelect().Column("COUNT(*) OVER()").OrderBy("f.updated_at DESC").Limit(limit).Offset(offset)
	if userID != nil {
		query = query.Where(squirrel.Eq{"f.user_id": *userID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, buildError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	files := []models.ProgramOutcomeFile{}
	var total int64
	for rows.Next() {
		var f models.ProgramOutcomeFile
		if err := rows.Scan(&f.ID, &f.UserID, &f.SemesterID, &f.CourseID, &f.FilePath, &f.OriginalName,
			&f.UploadedAt, &f.UpdatedAt, &f.Username, &f.CourseCode, &f.SemesterLabel, &total); err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		files = append(files, f)
	}
	return files, total, rows.Err()
}

// ListForReplay returns every file record in upload order
func (r *OutcomeFileRepository) ListForReplay(ctx context.Context) ([]models.ProgramOutcomeFile, error) {
	sql, args, err := outcomeFileSelect().OrderBy("f.uploaded_at", "f.id").ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	files, err := pgx.CollectRows(rows, scanOutcomeFile)
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return files, nil
}

// UpdatePath points a record at a new stored artifact
func (r *OutcomeFileRepository) UpdatePath(ctx context.Context, id int64, filePath, originalName string) error {
	tag, err := execBuilt(ctx, r.db, psql.Update("program_outcome_files").
		Set("file_path", filePath).
		Set("original_name", originalName).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error updating file record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOutcomeFileNotFound
	}
	return nil
}

// Delete removes a file record and keeps its results
func (r *OutcomeFileRepository) Delete(ctx context.Context, id int64) error {
	tag, err := execBuilt(ctx, r.db, psql.Delete("program_outcome_files").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting file record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOutcomeFileNotFound
	}
	return nil
}

// DeleteWithResults removes a file record and every result of its course in
// its semester in one transaction. It returns the number of results removed.
func (r *OutcomeFileRepository) DeleteWithResults(ctx context.Context, f *models.ProgramOutcomeFile) (int64, error) {
	var removed int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := execBuilt(ctx, tx, psql.Delete("program_outcome_results").
			Where(squirrel.Eq{"course_id": f.CourseID, "semester_id": f.SemesterID}))
		if err != nil {
			return fmt.Errorf("error deleting results: %w", err)
		}
		removed = tag.RowsAffected()

		tag, err = execBuilt(ctx, tx, psql.Delete("program_outcome_files").Where(squirrel.Eq{"id": f.ID}))
		if err != nil {
			return fmt.Errorf("error deleting file record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrOutcomeFileNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// UploadedCourseIDs returns the ids of courses with at least one file in a semester
func (r *OutcomeFileRepository) UploadedCourseIDs(ctx context.Context, semesterID int64) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT course_id FROM program_outcome_files WHERE semester_id = $1`, semesterID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}

	uploaded := make(map[int64]bool, len(ids))
	for _, id := range ids {
		uploaded[id] = true
	}
	return uploaded, nil
}
