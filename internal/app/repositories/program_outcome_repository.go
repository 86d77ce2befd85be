package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/models"
)

// ProgramOutcomeRepository handles database operations for program outcomes
type ProgramOutcomeRepository struct {
	db *pgxpool.Pool
}

// NewProgramOutcomeRepository creates a new ProgramOutcomeRepository
func NewProgramOutcomeRepository(db *pgxpool.Pool) *ProgramOutcomeRepository {
	return &ProgramOutcomeRepository{db: db}
}

// List returns every program outcome ordered by code
func (r *ProgramOutcomeRepository) List(ctx context.Context) ([]models.ProgramOutcome, error) {
	sql, args, err := psql.Select("id", "code", "description").From("program_outcomes").OrderBy("code").ToSql()
	if err != nil {
		return nil, buildError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	outcomes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.ProgramOutcome])
	if err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return outcomes, nil
}

// IDsByCode maps outcome codes to ids. Unknown codes are absent from the map.
func (r *ProgramOutcomeRepository) IDsByCode(ctx context.Context, codes []string) (map[string]int64, error) {
	return outcomeIDsByCode(ctx, r.db, codes)
}
