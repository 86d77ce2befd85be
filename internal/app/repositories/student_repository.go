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

var studentColumns = []string{"id", "no", "name", "transfer_student", "double_major_student", "graduated_on", "curriculum_id"}

// StudentRepository handles database operations for students
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetByNo retrieves a student by institution number
func (r *StudentRepository) GetByNo(ctx context.Context, no string) (*models.Student, error) {
	sql, args, err := psql.Select(studentColumns...).From("students").Where(squirrel.Eq{"no": no}).ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	s, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return s, nil
}

// IDsByNo maps the given institution numbers to student ids. Unknown
// numbers are absent from the map.
func (r *StudentRepository) IDsByNo(ctx context.Context, nos []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(nos))
	if len(nos) == 0 {
		return ids, nil
	}

	rows, err := r.db.Query(ctx, `SELECT no, id FROM students WHERE no = ANY($1)`, nos)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var no string
		var id int64
		if err := rows.Scan(&no, &id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids[no] = id
	}
	return ids, rows.Err()
}

// List returns a page of students ordered by number. activeOnly drops
// graduated students.
func (r *StudentRepository) List(ctx context.Context, activeOnly bool, offset, limit uint64) ([]models.Student, int64, error) {
	query := psql.Select(append(studentColumns, "COUNT(*) OVER()")...).
		From("students").
		OrderBy("no").
		Limit(limit).
		Offset(offset)
	if activeOnly {
		query = query.Where("graduated_on IS NULL")
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

	students := []models.Student{}
	var total int64
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.No, &s.Name, &s.TransferStudent, &s.DoubleMajorStudent,
			&s.GraduatedOn, &s.CurriculumID, &total); err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// UpsertMany inserts or updates students keyed by number in one
// transaction. A nil CurriculumID leaves an existing assignment untouched.
func (r *StudentRepository) UpsertMany(ctx context.Context, students []models.Student) (created, updated int, err error) {
	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		for _, s := range students {
			var inserted bool
			err := tx.QueryRow(ctx, `
				INSERT INTO students (no, name, transfer_student, double_major_student, graduated_on, curriculum_id)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (no) DO UPDATE SET
					name = EXCLUDED.name,
					transfer_student = EXCLUDED.transfer_student,
					double_major_student = EXCLUDED.double_major_student,
					graduated_on = EXCLUDED.graduated_on,
					curriculum_id = COALESCE(EXCLUDED.curriculum_id, students.curriculum_id)
				RETURNING (xmax = 0)`,
				s.No, s.Name, s.TransferStudent, s.DoubleMajorStudent, s.GraduatedOn, s.CurriculumID).Scan(&inserted)
			if err != nil {
				return fmt.Errorf("student %s: %w", s.No, err)
			}
			if inserted {
				created++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

// AssignCurriculum gives every student without a curriculum the given one
func (r *StudentRepository) AssignCurriculum(ctx context.Context, curriculumID int64) (int64, error) {
	tag, err := execBuilt(ctx, r.db, psql.Update("students").
		Set("curriculum_id", curriculumID).
		Where("curriculum_id IS NULL"))
	if err != nil {
		return 0, fmt.Errorf("error assigning curriculum: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	if err := row.Scan(&s.ID, &s.No, &s.Name, &s.TransferStudent, &s.DoubleMajorStudent,
		&s.GraduatedOn, &s.CurriculumID); err != nil {
		return nil, err
	}
	return &s, nil
}
