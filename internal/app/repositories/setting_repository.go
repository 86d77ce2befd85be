package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

// SettingRepository handles persisted site settings
type SettingRepository struct {
	db *pgxpool.Pool
}

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(db *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get retrieves a setting by key
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.SiteSetting, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value, version, updated_by, updated_at FROM site_settings WHERE key = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[models.SiteSetting])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("Setting %s does not exist.", key))
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return &s, nil
}

// CompareAndSwap writes value when the stored version still equals
// expectedVersion and returns the new state. A concurrent change yields
// apperrors.ErrStaleSetting.
func (r *SettingRepository) CompareAndSwap(ctx context.Context, key, value string, expectedVersion int64, updatedBy *int64) (*models.SiteSetting, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE site_settings SET value = $2, version = version + 1, updated_by = $4, updated_at = NOW()
		WHERE key = $1 AND version = $3
		RETURNING key, value, version, updated_by, updated_at`,
		key, value, expectedVersion, updatedBy)
	if err != nil {
		return nil, fmt.Errorf("error updating setting: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[models.SiteSetting])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.Get(ctx, key); getErr != nil {
				return nil, getErr
			}
			return nil, apperrors.ErrStaleSetting
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return &s, nil
}
