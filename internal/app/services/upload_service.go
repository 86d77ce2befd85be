package services

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/ingest"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/filestorage"
	"github.com/tustunkok/pc-link/internal/pkg/locker"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// NoStudentsMessage is reported when none of the students of an upload is
// registered
const NoStudentsMessage = "No student from the department exists in the uploaded file."

// UploadInput is an outcome file sent by an instructor
type UploadInput struct {
	CourseCode string
	SemesterID int64
	FileName   string
	Data       []byte
}

// UploadService defines the interface for outcome file uploads
type UploadService interface {
	Upload(ctx context.Context, in UploadInput) (*dto.UploadResponse, error)
	Reupload(ctx context.Context, fileID int64, fileName string, data []byte) (*dto.UploadResponse, error)
	Replay(ctx context.Context, f *models.ProgramOutcomeFile) (*dto.UploadResponse, error)
}

// uploadServiceImpl implements UploadService
type uploadServiceImpl struct {
	courseRepo   ICourseRepository
	semesterRepo ISemesterRepository
	outcomeRepo  IProgramOutcomeRepository
	studentRepo  IStudentRepository
	fileRepo     IOutcomeFileRepository
	resultRepo   IOutcomeResultRepository
	authz        *auth.AuthorizationService
	storage      filestorage.FileStorage
	locker       locker.Locker
	policy       models.SemesterPolicy
	log          zerolog.Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(
	courseRepo ICourseRepository,
	semesterRepo ISemesterRepository,
	outcomeRepo IProgramOutcomeRepository,
	studentRepo IStudentRepository,
	fileRepo IOutcomeFileRepository,
	resultRepo IOutcomeResultRepository,
	authz *auth.AuthorizationService,
	storage filestorage.FileStorage,
	lk locker.Locker,
	policy models.SemesterPolicy,
) UploadService {
	return &uploadServiceImpl{
		courseRepo:   courseRepo,
		semesterRepo: semesterRepo,
		outcomeRepo:  outcomeRepo,
		studentRepo:  studentRepo,
		fileRepo:     fileRepo,
		resultRepo:   resultRepo,
		authz:        authz,
		storage:      storage,
		locker:       lk,
		policy:       policy,
		log:          logger.Component("upload"),
	}
}

// Upload validates an outcome file, stores it and writes its results. A
// second upload by the same user for the same course and semester replaces
// the first one.
func (s *uploadServiceImpl) Upload(ctx context.Context, in UploadInput) (*dto.UploadResponse, error) {
	user, err := s.authz.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	semester, err := s.openSemester(ctx, in.SemesterID)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByCode(ctx, in.CourseCode)
	if err != nil {
		return nil, err
	}

	sheet, err := ingest.Parse(in.FileName, in.Data)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Acquire(ctx, locker.UploadKey(course.ID, semester.ID))
	if err != nil {
		return nil, fmt.Errorf("error waiting for upload lock: %w", err)
	}
	defer unlock()

	existing, err := s.fileRepo.FindByOwner(ctx, user.ID, semester.ID, course.ID)
	if err != nil && !errors.Is(err, apperrors.ErrOutcomeFileNotFound) {
		return nil, fmt.Errorf("error looking up previous upload: %w", err)
	}

	return s.store(ctx, user, course, semester, sheet, in, existing)
}

// Reupload replaces the artifact of an existing file and rewrites its results
func (s *uploadServiceImpl) Reupload(ctx context.Context, fileID int64, fileName string, data []byte) (*dto.UploadResponse, error) {
	f, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.ValidateFileAccess(ctx, f); err != nil {
		return nil, err
	}

	semester, err := s.openSemester(ctx, f.SemesterID)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, f.CourseID)
	if err != nil {
		return nil, err
	}

	sheet, err := ingest.Parse(fileName, data)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Acquire(ctx, locker.UploadKey(course.ID, semester.ID))
	if err != nil {
		return nil, fmt.Errorf("error waiting for upload lock: %w", err)
	}
	defer unlock()

	owner := &models.User{ID: f.UserID, Username: f.Username}
	in := UploadInput{CourseCode: course.Code, SemesterID: semester.ID, FileName: fileName, Data: data}
	return s.store(ctx, owner, course, semester, sheet, in, f)
}

// Replay writes the results of an already stored file again. The semester
// does not have to be open and the artifact is left untouched.
func (s *uploadServiceImpl) Replay(ctx context.Context, f *models.ProgramOutcomeFile) (*dto.UploadResponse, error) {
	semester, err := s.semesterRepo.GetByID(ctx, f.SemesterID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, f.CourseID)
	if err != nil {
		return nil, err
	}

	data, err := s.storage.ReadFile(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading stored file %d: %w", f.ID, err)
	}
	sheet, err := ingest.Parse(f.OriginalName, data)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Acquire(ctx, locker.UploadKey(course.ID, semester.ID))
	if err != nil {
		return nil, fmt.Errorf("error waiting for upload lock: %w", err)
	}
	defer unlock()

	resp, err := s.write(ctx, course, semester, sheet)
	if err != nil {
		return nil, err
	}
	resp.FileID = f.ID
	return resp, nil
}

func (s *uploadServiceImpl) openSemester(ctx context.Context, id int64) (*models.Semester, error) {
	semester, err := s.semesterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !semester.Active {
		return nil, apperrors.NewCustomError(apperrors.ErrSemesterInactive,
			fmt.Sprintf("Semester %s is not open for uploads.", semester.Label()))
	}
	return semester, nil
}

// store saves the artifact, keeps the file record in step with it and
// writes the results. A failure removes whatever this call created.
func (s *uploadServiceImpl) store(
	ctx context.Context,
	owner *models.User,
	course *models.Course,
	semester *models.Semester,
	sheet *ingest.Sheet,
	in UploadInput,
	existing *models.ProgramOutcomeFile,
) (*dto.UploadResponse, error) {
	dir := path.Join(semester.Label(), "user_"+owner.Username)
	newPath, err := s.storage.SaveBytes(in.Data, dir, in.FileName)
	if err != nil {
		return nil, fmt.Errorf("error saving outcome file: %w", err)
	}

	record := existing
	if record == nil {
		record = &models.ProgramOutcomeFile{
			UserID:       owner.ID,
			SemesterID:   semester.ID,
			CourseID:     course.ID,
			FilePath:     newPath,
			OriginalName: in.FileName,
		}
		id, err := s.fileRepo.Create(ctx, record)
		if err != nil {
			s.removeArtifact(newPath)
			return nil, fmt.Errorf("error creating file record: %w", err)
		}
		record.ID = id
	}

	resp, err := s.write(ctx, course, semester, sheet)
	if err != nil {
		s.removeArtifact(newPath)
		if existing == nil {
			if delErr := s.fileRepo.Delete(context.WithoutCancel(ctx), record.ID); delErr != nil {
				s.log.Error().Err(delErr).Int64("file_id", record.ID).Msg("Failed to remove file record after rejected upload")
			}
		}
		return nil, err
	}
	resp.FileID = record.ID

	if existing != nil {
		if err := s.fileRepo.UpdatePath(ctx, record.ID, newPath, in.FileName); err != nil {
			s.removeArtifact(newPath)
			return nil, fmt.Errorf("error updating file record: %w", err)
		}
		s.removeArtifact(existing.FilePath)
	}

	s.log.Info().
		Str("user", owner.Username).
		Str("course", course.Code).
		Str("semester", semester.Label()).
		Int64("file_id", record.ID).
		Bool("replaced", existing != nil).
		Int("processed", resp.ProcessedStudents).
		Int("created", resp.Created).
		Int("updated", resp.Updated).
		Int("skipped", resp.SkippedStudents).
		Msg("Outcome file processed")

	return resp, nil
}

// write checks the outcome set against the course and upserts one result
// per student and outcome in a single transaction
func (s *uploadServiceImpl) write(ctx context.Context, course *models.Course, semester *models.Semester, sheet *ingest.Sheet) (*dto.UploadResponse, error) {
	if err := ingest.CheckOutcomeSet(sheet, course.Code, course.OutcomeCodes()); err != nil {
		return nil, err
	}

	outcomeIDs, err := s.outcomeRepo.IDsByCode(ctx, sheet.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("error resolving program outcomes: %w", err)
	}
	for _, code := range sheet.Outcomes {
		if _, ok := outcomeIDs[code]; !ok {
			return nil, ingest.NewUnknownOutcomeError(code)
		}
	}

	nos := make([]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if !row.Unassessed() {
			nos = append(nos, row.StudentNo)
		}
	}
	studentIDs, err := s.studentRepo.IDsByNo(ctx, nos)
	if err != nil {
		return nil, fmt.Errorf("error resolving students: %w", err)
	}

	resp := &dto.UploadResponse{}
	writes := make([]models.ResultWrite, 0, len(nos)*len(sheet.Outcomes))
	for _, row := range sheet.Rows {
		if row.Unassessed() {
			resp.ProcessedStudents++
			continue
		}

		studentID, ok := studentIDs[row.StudentNo]
		if !ok {
			resp.SkippedStudents++
			s.log.Debug().
				Str("course", course.Code).
				Str("student_no", row.StudentNo).
				Int("line", row.Line).
				Str("kind", string(ingest.StudentNotFound)).
				Msg("Student is not registered, row skipped")
			continue
		}

		resp.ProcessedStudents++
		resp.Success = true
		for i, code := range sheet.Outcomes {
			writes = append(writes, models.ResultWrite{
				StudentID:        studentID,
				CourseID:         course.ID,
				ProgramOutcomeID: outcomeIDs[code],
				SemesterID:       semester.ID,
				Satisfaction:     row.Satisfaction(i),
			})
		}
	}

	if len(writes) > 0 {
		summary, err := s.resultRepo.UpsertBatch(ctx, writes, s.policy)
		if err != nil {
			return nil, fmt.Errorf("error writing outcome results: %w", err)
		}
		resp.Created = summary.Created
		resp.Updated = summary.Updated
		resp.Superseded = summary.Superseded
	}

	if !resp.Success {
		resp.Message = NoStudentsMessage
	}
	return resp, nil
}

func (s *uploadServiceImpl) removeArtifact(p string) {
	if err := s.storage.DeleteFile(p); err != nil {
		s.log.Error().Err(err).Str("path", p).Msg("Failed to remove outcome file artifact")
	}
}
