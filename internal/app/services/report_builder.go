package services

import (
	"context"
	"fmt"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/report"
)

// ReportBuilder computes report tables from stored results. The job
// handlers call it off the request path.
type ReportBuilder struct {
	reportRepo   IReportRepository
	semesterRepo ISemesterRepository
}

// NewReportBuilder creates a new ReportBuilder
func NewReportBuilder(reportRepo IReportRepository, semesterRepo ISemesterRepository) *ReportBuilder {
	return &ReportBuilder{
		reportRepo:   reportRepo,
		semesterRepo: semesterRepo,
	}
}

// Export builds the full report over a set of semesters
func (b *ReportBuilder) Export(ctx context.Context, params models.ExportParams) (*report.Table, error) {
	if _, err := b.semesterRepo.ListByIDs(ctx, params.SemesterIDs); err != nil {
		return nil, err
	}
	in, err := b.reportRepo.LoadInput(ctx, params.SemesterIDs, params.CurriculumID)
	if err != nil {
		return nil, fmt.Errorf("error loading report input: %w", err)
	}
	return report.Build(in), nil
}

// Diff compares the averages of two semester groups. Each group is labelled
// with its chronologically last semester.
func (b *ReportBuilder) Diff(ctx context.Context, params models.DiffParams) (*report.DiffResult, error) {
	first, firstLabel, err := b.group(ctx, params.FirstSemesterIDs, params.CurriculumID)
	if err != nil {
		return nil, err
	}
	second, secondLabel, err := b.group(ctx, params.SecondSemesterIDs, params.CurriculumID)
	if err != nil {
		return nil, err
	}
	return report.Diff(first, second, firstLabel, secondLabel), nil
}

func (b *ReportBuilder) group(ctx context.Context, semesterIDs []int64, curriculumID *int64) (*report.Table, string, error) {
	semesters, err := b.semesterRepo.ListByIDs(ctx, semesterIDs)
	if err != nil {
		return nil, "", err
	}
	if len(semesters) == 0 {
		return nil, "", fmt.Errorf("empty semester group")
	}
	last := semesters[len(semesters)-1]

	in, err := b.reportRepo.LoadInput(ctx, semesterIDs, curriculumID)
	if err != nil {
		return nil, "", fmt.Errorf("error loading report input: %w", err)
	}
	return report.Build(in), last.Label(), nil
}
