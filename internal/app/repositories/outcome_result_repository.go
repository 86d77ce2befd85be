package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/db"
)

const (
	supersedeResultSQL = `
		DELETE FROM program_outcome_results
		WHERE student_id = $1 AND course_id = $2 AND program_outcome_id = $3 AND semester_id <> $4`

	upsertResultSQL = `
		INSERT INTO program_outcome_results (student_id, course_id, program_outcome_id, semester_id, satisfaction)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT uq_program_outcome_results DO UPDATE SET
			satisfaction = EXCLUDED.satisfaction,
			updated_at = NOW()
		RETURNING (xmax = 0)`
)

// OutcomeResultRepository handles database operations for outcome results
type OutcomeResultRepository struct {
	db *pgxpool.Pool
}

// NewOutcomeResultRepository creates a new OutcomeResultRepository
func NewOutcomeResultRepository(db *pgxpool.Pool) *OutcomeResultRepository {
	return &OutcomeResultRepository{db: db}
}

// UpsertBatch writes every result in one transaction, inserting new
// 4-tuples and updating existing ones. With PolicyRecencyWins the results
// of the same student, course and outcome in other semesters are removed
// first. Any failure rolls the whole batch back.
func (r *OutcomeResultRepository) UpsertBatch(ctx context.Context, writes []models.ResultWrite, policy models.SemesterPolicy) (models.UpsertSummary, error) {
	var summary models.UpsertSummary
	if len(writes) == 0 {
		return summary, nil
	}

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, w := range writes {
			if policy == models.PolicyRecencyWins {
				batch.Queue(supersedeResultSQL, w.StudentID, w.CourseID, w.ProgramOutcomeID, w.SemesterID)
			}
			batch.Queue(upsertResultSQL, w.StudentID, w.CourseID, w.ProgramOutcomeID, w.SemesterID, w.Satisfaction)
		}

		br := tx.SendBatch(ctx, batch)
		for _, w := range writes {
			if policy == models.PolicyRecencyWins {
				tag, err := br.Exec()
				if err != nil {
					br.Close()
					return fmt.Errorf("error superseding results of student %d: %w", w.StudentID, err)
				}
				summary.Superseded += int(tag.RowsAffected())
			}

			var inserted bool
			if err := br.QueryRow().Scan(&inserted); err != nil {
				br.Close()
				return fmt.Errorf("error writing result of student %d: %w", w.StudentID, err)
			}
			if inserted {
				summary.Created++
			} else {
				summary.Updated++
			}
		}
		return br.Close()
	})
	if err != nil {
		return models.UpsertSummary{}, err
	}
	return summary, nil
}

// List returns a page of results matching the filter
func (r *OutcomeResultRepository) List(ctx context.Context, filter models.ResultFilter, offset, limit uint64) ([]models.ProgramOutcomeResult, int64, error) {
	query := psql.Select(
		"r.id", "r.student_id", "r.course_id", "r.program_outcome_id", "r.semester_id", "r.satisfaction",
		"r.created_at", "r.updated_at", "st.no", "c.code", "po.code",
		"s.year_interval || ' ' || s.period_name", "COUNT(*) OVER()",
	).
		From("program_outcome_results r").
		Join("students st ON st.id = r.student_id").
		Join("courses c ON c.id = r.course_id").
		Join("program_outcomes po ON po.id = r.program_outcome_id").
		Join("semesters s ON s.id = r.semester_id").
		OrderBy("st.no", "po.code", "s.period_order_value", "c.code").
		Limit(limit).
		Offset(offset)

	if filter.StudentID != nil {
		query = query.Where(squirrel.Eq{"r.student_id": *filter.StudentID})
	}
	if filter.ProgramOutcomeID != nil {
		query = query.Where(squirrel.Eq{"r.program_outcome_id": *filter.ProgramOutcomeID})
	}
	if filter.SemesterID != nil {
		query = query.Where(squirrel.Eq{"r.semester_id": *filter.SemesterID})
	}
	if filter.CourseID != nil {
		query = query.Where(squirrel.Eq{"r.course_id": *filter.CourseID})
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

	results := []models.ProgramOutcomeResult{}
	var total int64
	for rows.Next() {
		var res models.ProgramOutcomeResult
		if err := rows.Scan(&res.ID, &res.StudentID, &res.CourseID, &res.ProgramOutcomeID, &res.SemesterID,
			&res.Satisfaction, &res.CreatedAt, &res.UpdatedAt, &res.StudentNo, &res.CourseCode,
			&res.OutcomeCode, &res.SemesterLabel, &total); err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// DeleteAll removes every result and returns how many there were
func (r *OutcomeResultRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM program_outcome_results`)
	if err != nil {
		return 0, fmt.Errorf("error deleting results: %w", err)
	}
	return tag.RowsAffected(), nil
}
