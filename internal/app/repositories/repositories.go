package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds PostgreSQL statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// queryer is satisfied by *pgxpool.Pool and pgx.Tx
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository           *UserRepository
	StudentRepository        *StudentRepository
	CourseRepository         *CourseRepository
	ProgramOutcomeRepository *ProgramOutcomeRepository
	SemesterRepository       *SemesterRepository
	CurriculumRepository     *CurriculumRepository
	OutcomeFileRepository    *OutcomeFileRepository
	OutcomeResultRepository  *OutcomeResultRepository
	ReportRepository         *ReportRepository
	ReportTaskRepository     *ReportTaskRepository
	SettingRepository        *SettingRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:           NewUserRepository(db),
		StudentRepository:        NewStudentRepository(db),
		CourseRepository:         NewCourseRepository(db),
		ProgramOutcomeRepository: NewProgramOutcomeRepository(db),
		SemesterRepository:       NewSemesterRepository(db),
		CurriculumRepository:     NewCurriculumRepository(db),
		OutcomeFileRepository:    NewOutcomeFileRepository(db),
		OutcomeResultRepository:  NewOutcomeResultRepository(db),
		ReportRepository:         NewReportRepository(db),
		ReportTaskRepository:     NewReportTaskRepository(db),
		SettingRepository:        NewSettingRepository(db),
	}
}

// execBuilt renders a squirrel statement and executes it
func execBuilt(ctx context.Context, q queryer, b squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, buildError(err)
	}
	return q.Exec(ctx, sql, args...)
}

func buildError(err error) error {
	return fmt.Errorf("error building SQL: %w", err)
}
