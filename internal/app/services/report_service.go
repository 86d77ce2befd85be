package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/report"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// Download formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Download is a rendered report ready to be sent as an attachment
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ReportService defines the interface for report requests
type ReportService interface {
	EnqueueExport(ctx context.Context, req *dto.ExportRequest) (*dto.TaskCreatedResponse, error)
	EnqueueDiff(ctx context.Context, req *dto.DiffRequest) (*dto.TaskCreatedResponse, error)
	TaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error)
	Download(ctx context.Context, taskID, format string) (*Download, error)
	CourseStatus(ctx context.Context, semesterID int64) ([]dto.CourseStatusResponse, error)
}

// reportServiceImpl implements ReportService
type reportServiceImpl struct {
	taskRepo       IReportTaskRepository
	semesterRepo   ISemesterRepository
	curriculumRepo ICurriculumRepository
	courseRepo     ICourseRepository
	fileRepo       IOutcomeFileRepository
	log            zerolog.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	taskRepo IReportTaskRepository,
	semesterRepo ISemesterRepository,
	curriculumRepo ICurriculumRepository,
	courseRepo ICourseRepository,
	fileRepo IOutcomeFileRepository,
) ReportService {
	return &reportServiceImpl{
		taskRepo:       taskRepo,
		semesterRepo:   semesterRepo,
		curriculumRepo: curriculumRepo,
		courseRepo:     courseRepo,
		fileRepo:       fileRepo,
		log:            logger.Component("reports"),
	}
}

// EnqueueExport queues an export over a set of semesters
func (s *reportServiceImpl) EnqueueExport(ctx context.Context, req *dto.ExportRequest) (*dto.TaskCreatedResponse, error) {
	if err := s.checkScope(ctx, req.CurriculumID, req.Semesters); err != nil {
		return nil, err
	}
	params := models.ExportParams{SemesterIDs: req.Semesters, CurriculumID: req.CurriculumID}
	return s.enqueue(ctx, models.TaskTypeExport, params)
}

// EnqueueDiff queues a comparison of two semester groups
func (s *reportServiceImpl) EnqueueDiff(ctx context.Context, req *dto.DiffRequest) (*dto.TaskCreatedResponse, error) {
	if err := s.checkScope(ctx, req.CurriculumID, req.FirstSemesters, req.SecondSemesters); err != nil {
		return nil, err
	}
	params := models.DiffParams{
		FirstSemesterIDs:  req.FirstSemesters,
		SecondSemesterIDs: req.SecondSemesters,
		CurriculumID:      req.CurriculumID,
	}
	return s.enqueue(ctx, models.TaskTypeDiff, params)
}

// checkScope rejects unknown semesters and curricula before a task is queued
func (s *reportServiceImpl) checkScope(ctx context.Context, curriculumID *int64, groups ...[]int64) error {
	for _, ids := range groups {
		if _, err := s.semesterRepo.ListByIDs(ctx, ids); err != nil {
			return err
		}
	}
	if curriculumID != nil {
		if _, err := s.curriculumRepo.GetByID(ctx, *curriculumID); err != nil {
			return err
		}
	}
	return nil
}

func (s *reportServiceImpl) enqueue(ctx context.Context, taskType models.TaskType, params interface{}) (*dto.TaskCreatedResponse, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("error encoding task parameters: %w", err)
	}

	task := &models.ReportTask{TaskType: taskType, Params: raw}
	if p, err := auth.PrincipalFrom(ctx); err == nil {
		task.RequestedBy = &p.UserID
	}

	id, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("task_id", id.String()).Str("task_type", string(taskType)).Msg("Report task queued")
	return &dto.TaskCreatedResponse{TaskID: id.String()}, nil
}

// TaskStatus reports the state of a task. Unknown ids are reported as
// PENDING, the same as a task no worker has picked up yet.
func (s *reportServiceImpl) TaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
	resp := &dto.TaskStatusResponse{TaskID: taskID, Status: models.TaskPending}

	id, err := uuid.Parse(taskID)
	if err != nil {
		return resp, nil
	}
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrTaskNotFound) {
			return resp, nil
		}
		return nil, err
	}

	resp.Status = task.Status
	if task.Status == models.TaskFailure {
		resp.Error = task.Error
	}
	return resp, nil
}

// Download renders the result of a finished task
func (s *reportServiceImpl) Download(ctx context.Context, taskID, format string) (*Download, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Unsupported format %q, use csv or xlsx.", format))
	}

	id, err := uuid.Parse(taskID)
	if err != nil {
		return nil, apperrors.ErrTaskNotFound
	}
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch task.Status {
	case models.TaskSuccess:
	case models.TaskFailure:
		return nil, apperrors.NewCustomError(apperrors.ErrTaskNotReady, "Report generation failed: "+task.Error)
	default:
		return nil, apperrors.ErrTaskNotReady
	}

	var buf bytes.Buffer
	switch task.TaskType {
	case models.TaskTypeExport:
		var table report.Table
		if err := json.Unmarshal(task.Result, &table); err != nil {
			return nil, fmt.Errorf("error decoding report: %w", err)
		}
		if format == FormatXLSX {
			err = report.WriteXLSX(&buf, &table)
		} else {
			err = report.WriteCSV(&buf, &table)
		}
	case models.TaskTypeDiff:
		var diff report.DiffResult
		if err := json.Unmarshal(task.Result, &diff); err != nil {
			return nil, fmt.Errorf("error decoding report: %w", err)
		}
		if diff.Identical {
			return nil, apperrors.NewCustomError(apperrors.ErrNoDifference, report.NoDifferenceMessage)
		}
		if format == FormatXLSX {
			err = report.WriteDiffXLSX(&buf, &diff)
		} else {
			err = report.WriteDiffCSV(&buf, &diff)
		}
	default:
		return nil, fmt.Errorf("unknown task type %q", task.TaskType)
	}
	if err != nil {
		return nil, fmt.Errorf("error rendering report: %w", err)
	}

	d := &Download{FileName: "report.csv", ContentType: "text/csv; charset=utf-8", Body: buf.Bytes()}
	if format == FormatXLSX {
		d.FileName = "report.xlsx"
		d.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return d, nil
}

// CourseStatus lists the courses offered in a semester and whether any
// file was uploaded for each
func (s *reportServiceImpl) CourseStatus(ctx context.Context, semesterID int64) ([]dto.CourseStatusResponse, error) {
	if _, err := s.semesterRepo.GetByID(ctx, semesterID); err != nil {
		return nil, err
	}

	courses, err := s.courseRepo.OfferedIn(ctx, semesterID)
	if err != nil {
		return nil, fmt.Errorf("error listing offered courses: %w", err)
	}
	uploaded, err := s.fileRepo.UploadedCourseIDs(ctx, semesterID)
	if err != nil {
		return nil, fmt.Errorf("error listing uploads: %w", err)
	}

	out := make([]dto.CourseStatusResponse, len(courses))
	for i, c := range courses {
		out[i] = dto.CourseStatusResponse{
			CourseID:   c.ID,
			CourseCode: c.Code,
			CourseName: c.Name,
			Uploaded:   uploaded[c.ID],
		}
	}
	return out, nil
}
