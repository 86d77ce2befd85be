package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/report"
)

// ReportRepository loads what the report builder needs
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// LoadInput reads the column layout, the active students and the results of
// the given semesters. With a curriculum only its students and member
// courses are included. Records come oldest semester first.
func (r *ReportRepository) LoadInput(ctx context.Context, semesterIDs []int64, curriculumID *int64) (report.Input, error) {
	var in report.Input
	var err error

	if in.Outcomes, err = r.outcomeCourses(ctx, curriculumID); err != nil {
		return report.Input{}, err
	}
	if in.Students, err = r.students(ctx, curriculumID); err != nil {
		return report.Input{}, err
	}
	if in.Records, err = r.records(ctx, semesterIDs, curriculumID); err != nil {
		return report.Input{}, err
	}
	return in, nil
}

func (r *ReportRepository) outcomeCourses(ctx context.Context, curriculumID *int64) ([]report.OutcomeCourses, error) {
	rows, err := r.db.Query(ctx, `
		SELECT po.code, c.code
		FROM program_outcomes po
		LEFT JOIN course_program_outcomes cpo ON cpo.program_outcome_id = po.id
		LEFT JOIN courses c ON c.id = cpo.course_id
			AND ($1::BIGINT IS NULL OR c.id IN (
				SELECT course_id FROM curriculum_courses WHERE curriculum_id = $1))
		ORDER BY po.code, c.code`, curriculumID)
	if err != nil {
		return nil, fmt.Errorf("error loading report columns: %w", err)
	}
	defer rows.Close()

	var outcomes []report.OutcomeCourses
	for rows.Next() {
		var outcome string
		var course *string
		if err := rows.Scan(&outcome, &course); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		if len(outcomes) == 0 || outcomes[len(outcomes)-1].Outcome != outcome {
			outcomes = append(outcomes, report.OutcomeCourses{Outcome: outcome})
		}
		if course != nil {
			last := &outcomes[len(outcomes)-1]
			last.Courses = append(last.Courses, *course)
		}
	}
	return outcomes, rows.Err()
}

func (r *ReportRepository) students(ctx context.Context, curriculumID *int64) ([]report.StudentRef, error) {
	rows, err := r.db.Query(ctx, `
		SELECT no, name FROM students
		WHERE graduated_on IS NULL AND ($1::BIGINT IS NULL OR curriculum_id = $1)
		ORDER BY no`, curriculumID)
	if err != nil {
		return nil, fmt.Errorf("error loading report students: %w", err)
	}
	students, err := pgx.CollectRows(rows, pgx.RowToStructByPos[report.StudentRef])
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return students, nil
}

func (r *ReportRepository) records(ctx context.Context, semesterIDs []int64, curriculumID *int64) ([]report.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT st.no, po.code, c.code, r.satisfaction
		FROM program_outcome_results r
		JOIN students st ON st.id = r.student_id
		JOIN program_outcomes po ON po.id = r.program_outcome_id
		JOIN courses c ON c.id = r.course_id
		JOIN semesters s ON s.id = r.semester_id
		WHERE r.semester_id = ANY($1)
			AND st.graduated_on IS NULL
			AND ($2::BIGINT IS NULL OR st.curriculum_id = $2)
		ORDER BY s.period_order_value, r.id`, semesterIDs, curriculumID)
	if err != nil {
		return nil, fmt.Errorf("error loading report records: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[report.Record])
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return records, nil
}
