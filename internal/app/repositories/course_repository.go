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

// CatalogImport is a full course and program outcome catalog to merge into
// the database
type CatalogImport struct {
	Outcomes       []models.ProgramOutcome
	Courses        []models.Course
	CourseOutcomes map[string][]string // course code => outcome codes
}

// CatalogSummary counts what a catalog import changed
type CatalogSummary struct {
	Outcomes       int `json:"outcomes"`
	Courses        int `json:"courses"`
	CourseOutcomes int `json:"courseOutcomes"`
}

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: db}
}

// GetByCode retrieves a course with its program outcomes
func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code})
}

// GetByID retrieves a course with its program outcomes
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *CourseRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.Course, error) {
	sql, args, err := psql.Select("id", "code", "name").From("courses").Where(where).ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	var c models.Course
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Code, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	outcomes, err := r.outcomesOf(ctx, []int64{c.ID})
	if err != nil {
		return nil, err
	}
	c.ProgramOutcomes = outcomes[c.ID]
	return &c, nil
}

// List returns every course with its program outcomes, ordered by code
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	return r.list(ctx, psql.Select("id", "code", "name").From("courses").OrderBy("code"))
}

// OfferedIn returns the courses offered in a semester
func (r *CourseRepository) OfferedIn(ctx context.Context, semesterID int64) ([]models.Course, error) {
	return r.list(ctx, psql.Select("c.id", "c.code", "c.name").
		From("courses c").
		Join("semester_courses sc ON sc.course_id = c.id").
		Where(squirrel.Eq{"sc.semester_id": semesterID}).
		OrderBy("c.code"))
}

func (r *CourseRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]models.Course, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	courses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Course, error) {
		var c models.Course
		err := row.Scan(&c.ID, &c.Code, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}

	ids := make([]int64, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
	}
	outcomes, err := r.outcomesOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].ProgramOutcomes = outcomes[courses[i].ID]
	}
	return courses, nil
}

// outcomesOf loads the program outcomes of the given courses, ordered by code
func (r *CourseRepository) outcomesOf(ctx context.Context, courseIDs []int64) (map[int64][]models.ProgramOutcome, error) {
	result := make(map[int64][]models.ProgramOutcome, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT cpo.course_id, po.id, po.code, po.description
		FROM course_program_outcomes cpo
		JOIN program_outcomes po ON po.id = cpo.program_outcome_id
		WHERE cpo.course_id = ANY($1)
		ORDER BY po.code`, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading course outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseID int64
		var po models.ProgramOutcome
		if err := rows.Scan(&courseID, &po.ID, &po.Code, &po.Description); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		result[courseID] = append(result[courseID], po)
	}
	return result, rows.Err()
}

// ImportCatalog merges outcomes and courses by code and replaces the
// outcome set of every course listed in CourseOutcomes, all in one
// transaction
func (r *CourseRepository) ImportCatalog(ctx context.Context, in CatalogImport) (CatalogSummary, error) {
	var summary CatalogSummary
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		for _, po := range in.Outcomes {
			if _, err := tx.Exec(ctx, `
				INSERT INTO program_outcomes (code, description) VALUES ($1, $2)
				ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description`,
				po.Code, po.Description); err != nil {
				return fmt.Errorf("program outcome %s: %w", po.Code, err)
			}
			summary.Outcomes++
		}

		for _, c := range in.Courses {
			if _, err := tx.Exec(ctx, `
				INSERT INTO courses (code, name) VALUES ($1, $2)
				ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
				c.Code, c.Name); err != nil {
				return fmt.Errorf("course %s: %w", c.Code, err)
			}
			summary.Courses++
		}

		for courseCode, codes := range in.CourseOutcomes {
			var courseID int64
			if err := tx.QueryRow(ctx, `SELECT id FROM courses WHERE code = $1`, courseCode).Scan(&courseID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewResourceNotFoundError(fmt.Sprintf("Course %s does not exist.", courseCode))
				}
				return fmt.Errorf("course %s: %w", courseCode, err)
			}

			outcomeIDs, err := outcomeIDsByCode(ctx, tx, codes)
			if err != nil {
				return err
			}
			for _, code := range codes {
				if _, ok := outcomeIDs[code]; !ok {
					return apperrors.NewResourceNotFoundError(
						fmt.Sprintf("Program outcome %s of course %s does not exist.", code, courseCode))
				}
			}

			if _, err := tx.Exec(ctx, `DELETE FROM course_program_outcomes WHERE course_id = $1`, courseID); err != nil {
				return fmt.Errorf("course %s: %w", courseCode, err)
			}
			for _, id := range outcomeIDs {
				if _, err := tx.Exec(ctx, `
					INSERT INTO course_program_outcomes (course_id, program_outcome_id) VALUES ($1, $2)`,
					courseID, id); err != nil {
					return fmt.Errorf("course %s: %w", courseCode, err)
				}
				summary.CourseOutcomes++
			}
		}
		return nil
	})
	if err != nil {
		return CatalogSummary{}, err
	}
	return summary, nil
}

// SetOffered records that the courses are offered in a semester
func (r *CourseRepository) SetOffered(ctx context.Context, semesterID int64, courseIDs []int64) error {
	if len(courseIDs) == 0 {
		return nil
	}
	insert := psql.Insert("semester_courses").Columns("semester_id", "course_id").Suffix("ON CONFLICT DO NOTHING")
	for _, id := range courseIDs {
		insert = insert.Values(semesterID, id)
	}
	if _, err := execBuilt(ctx, r.db, insert); err != nil {
		return fmt.Errorf("error recording offered courses: %w", err)
	}
	return nil
}

func outcomeIDsByCode(ctx context.Context, q queryer, codes []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(codes))
	if len(codes) == 0 {
		return ids, nil
	}

	rows, err := q.Query(ctx, `SELECT code, id FROM program_outcomes WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, fmt.Errorf("error loading program outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var id int64
		if err := rows.Scan(&code, &id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids[code] = id
	}
	return ids, rows.Err()
}
