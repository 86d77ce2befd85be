package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/report"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

// ReportBuilder builds the reports behind export and diff tasks
type ReportBuilder interface {
	Export(ctx context.Context, params models.ExportParams) (*report.Table, error)
	Diff(ctx context.Context, params models.DiffParams) (*report.DiffResult, error)
}

// RegisterReportHandlers registers the export and diff handlers
func RegisterReportHandlers(r *Registry, builder ReportBuilder) error {
	if err := r.Register(models.TaskTypeExport, exportHandler(builder)); err != nil {
		return err
	}
	return r.Register(models.TaskTypeDiff, diffHandler(builder))
}

func exportHandler(builder ReportBuilder) Handler {
	return func(ctx context.Context, task *models.ReportTask) (json.RawMessage, error) {
		var params models.ExportParams
		if err := json.Unmarshal(task.Params, &params); err != nil {
			return nil, Permanent(fmt.Errorf("invalid export parameters: %w", err))
		}
		table, err := builder.Export(ctx, params)
		if err != nil {
			return nil, classify(err)
		}
		return json.Marshal(table)
	}
}

func diffHandler(builder ReportBuilder) Handler {
	return func(ctx context.Context, task *models.ReportTask) (json.RawMessage, error) {
		var params models.DiffParams
		if err := json.Unmarshal(task.Params, &params); err != nil {
			return nil, Permanent(fmt.Errorf("invalid diff parameters: %w", err))
		}
		diff, err := builder.Diff(ctx, params)
		if err != nil {
			return nil, classify(err)
		}
		return json.Marshal(diff)
	}
}

// classify marks missing semesters and curricula as permanent failures
func classify(err error) error {
	if errors.Is(err, apperrors.ErrSemesterNotFound) || errors.Is(err, apperrors.ErrCurriculumNotFound) {
		return Permanent(err)
	}
	return err
}
