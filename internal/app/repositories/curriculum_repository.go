package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/db"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

// CurriculumRepository handles database operations for curricula
type CurriculumRepository struct {
	db *pgxpool.Pool
}

// NewCurriculumRepository creates a new CurriculumRepository
func NewCurriculumRepository(db *pgxpool.Pool) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// GetByID retrieves a curriculum with its member course ids
func (r *CurriculumRepository) GetByID(ctx context.Context, id int64) (*models.Curriculum, error) {
	return r.getOne(ctx, `SELECT id, name FROM curricula WHERE id = $1`, id)
}

// GetByName retrieves a curriculum with its member course ids
func (r *CurriculumRepository) GetByName(ctx context.Context, name string) (*models.Curriculum, error) {
	return r.getOne(ctx, `SELECT id, name FROM curricula WHERE name = $1`, name)
}

func (r *CurriculumRepository) getOne(ctx context.Context, sql string, arg any) (*models.Curriculum, error) {
	var c models.Curriculum
	if err := r.db.QueryRow(ctx, sql, arg).Scan(&c.ID, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCurriculumNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	members, err := r.members(ctx)
	if err != nil {
		return nil, err
	}
	c.CourseIDs = members[c.ID]
	return &c, nil
}

// List returns every curriculum ordered by name
func (r *CurriculumRepository) List(ctx context.Context) ([]models.Curriculum, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM curricula ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	curricula, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Curriculum, error) {
		var c models.Curriculum
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}

	members, err := r.members(ctx)
	if err != nil {
		return nil, err
	}
	for i := range curricula {
		curricula[i].CourseIDs = members[curricula[i].ID]
	}
	return curricula, nil
}

func (r *CurriculumRepository) members(ctx context.Context) (map[int64][]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT curriculum_id, course_id FROM curriculum_courses ORDER BY curriculum_id, course_id`)
	if err != nil {
		return nil, fmt.Errorf("error loading curriculum courses: %w", err)
	}
	defer rows.Close()

	members := make(map[int64][]int64)
	for rows.Next() {
		var curriculumID, courseID int64
		if err := rows.Scan(&curriculumID, &courseID); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		members[curriculumID] = append(members[curriculumID], courseID)
	}
	return members, rows.Err()
}

// EnsureWithAllCourses creates the named curriculum when it is missing and
// makes every course a member of it. It returns the curriculum id.
func (r *CurriculumRepository) EnsureWithAllCourses(ctx context.Context, name string) (int64, error) {
	var id int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO curricula (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&id); err != nil {
			return fmt.Errorf("error creating curriculum: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO curriculum_courses (curriculum_id, course_id)
			SELECT $1, id FROM courses
			ON CONFLICT DO NOTHING`, id); err != nil {
			return fmt.Errorf("error adding courses to curriculum: %w", err)
		}
		return nil
	})
	return id, err
}
