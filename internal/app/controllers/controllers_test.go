package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tustunkok/pc-link/internal/app/ingest"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/middleware"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

type stubUploads struct {
	services.UploadService
	got uploadCall
	err error
}

// uploadCall records what the controller passed on
type uploadCall struct {
	In     services.UploadInput
	FileID int64
}

func (s *stubUploads) Upload(_ context.Context, in services.UploadInput) (*dto.UploadResponse, error) {
	s.got.In = in
	if s.err != nil {
		return nil, s.err
	}
	return &dto.UploadResponse{FileID: 12, ProcessedStudents: 2, Created: 6, Success: true}, nil
}

func (s *stubUploads) Reupload(_ context.Context, fileID int64, fileName string, data []byte) (*dto.UploadResponse, error) {
	s.got = uploadCall{In: services.UploadInput{FileName: fileName, Data: data}, FileID: fileID}
	return &dto.UploadResponse{FileID: fileID, Success: true}, s.err
}

type stubReports struct {
	services.ReportService
	download *services.Download
	err      error
	export   *dto.ExportRequest
	semester int64
}

func (s *stubReports) EnqueueExport(_ context.Context, req *dto.ExportRequest) (*dto.TaskCreatedResponse, error) {
	s.export = req
	return &dto.TaskCreatedResponse{TaskID: "2f1c6a40-5b7e-4c41-8c0c-1d7b5d7f0f1e"}, s.err
}

func (s *stubReports) TaskStatus(_ context.Context, id string) (*dto.TaskStatusResponse, error) {
	return &dto.TaskStatusResponse{TaskID: id, Status: models.TaskPending}, nil
}

func (s *stubReports) Download(context.Context, string, string) (*services.Download, error) {
	return s.download, s.err
}

func (s *stubReports) CourseStatus(_ context.Context, semesterID int64) ([]dto.CourseStatusResponse, error) {
	s.semester = semesterID
	return []dto.CourseStatusResponse{{CourseID: 3, CourseCode: "CMPE101", Uploaded: true}}, nil
}

type stubCatalog struct {
	services.CatalogService
	filter     models.ResultFilter
	activeOnly bool
}

func (s *stubCatalog) ListResults(_ context.Context, filter models.ResultFilter, page, size int) (*dto.PaginatedResponse, error) {
	s.filter = filter
	return &dto.PaginatedResponse{Items: []models.ProgramOutcomeResult{}, Pagination: dto.PaginationInfo{CurrentPage: page, PageSize: size}}, nil
}

func (s *stubCatalog) ListSemesters(_ context.Context, activeOnly bool) ([]models.Semester, error) {
	s.activeOnly = activeOnly
	return []models.Semester{{ID: 1, YearInterval: "2020-2021", PeriodName: "Fall", Active: true}}, nil
}

type stubSettings struct {
	services.SettingService
	err error
}

func (s *stubSettings) UpdateRegistration(_ context.Context, req *dto.UpdateRegistrationRequest) (*dto.RegistrationSettingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.RegistrationSettingResponse{Open: *req.Open, Version: req.Version + 1}, nil
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func serve(router *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const outcomeCSV = "student_id,name,PO1\n44629785700,Ada,1\n"

func newUploadRouter(uploads *stubUploads, maxBytes int64) *gin.Engine {
	c := NewUploadController(uploads, nil, maxBytes, zerolog.Nop())
	r := gin.New()
	r.POST("/uploads", c.Upload)
	r.PUT("/files/:id", c.Reupload)
	return r
}

func TestUpload(t *testing.T) {
	uploads := &stubUploads{}
	router := newUploadRouter(uploads, 1<<20)

	body, ct := multipartBody(t, map[string]string{"course_code": "CMPE101", "semester_id": "4"}, "file", "cmpe101.csv", outcomeCSV)
	w := serve(router, http.MethodPost, "/uploads", body, ct)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, services.UploadInput{
		CourseCode: "CMPE101",
		SemesterID: 4,
		FileName:   "cmpe101.csv",
		Data:       []byte(outcomeCSV),
	}, uploads.got.In)

	var resp dto.UploadResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, int64(12), resp.FileID)
	assert.True(t, resp.Success)
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		file     string
		maxBytes int64
		err      error
		status   int
		code     dto.ErrorCode
	}{
		{
			name:     "missing semester",
			fields:   map[string]string{"course_code": "CMPE101"},
			file:     outcomeCSV,
			maxBytes: 1 << 20,
			status:   http.StatusBadRequest,
			code:     dto.ErrorCodeValidationFailed,
		},
		{
			name:     "malformed course code",
			fields:   map[string]string{"course_code": "101-CMPE", "semester_id": "4"},
			file:     outcomeCSV,
			maxBytes: 1 << 20,
			status:   http.StatusBadRequest,
			code:     dto.ErrorCodeValidationFailed,
		},
		{
			name:     "missing file",
			fields:   map[string]string{"course_code": "CMPE101", "semester_id": "4"},
			maxBytes: 1 << 20,
			status:   http.StatusBadRequest,
			code:     dto.ErrorCodeBadRequest,
		},
		{
			name:     "too large",
			fields:   map[string]string{"course_code": "CMPE101", "semester_id": "4"},
			file:     outcomeCSV,
			maxBytes: 8,
			status:   http.StatusBadRequest,
			code:     dto.ErrorCodeFileTooLarge,
		},
		{
			name:     "invalid content",
			fields:   map[string]string{"course_code": "CMPE101", "semester_id": "4"},
			file:     outcomeCSV,
			maxBytes: 1 << 20,
			err:      &ingest.ValidationError{Kind: ingest.MalformedHeader, Message: "The header is malformed."},
			status:   http.StatusBadRequest,
			code:     dto.ErrorCodeValidationFailed,
		},
		{
			name:     "unknown course",
			fields:   map[string]string{"course_code": "CMPE999", "semester_id": "4"},
			file:     outcomeCSV,
			maxBytes: 1 << 20,
			err:      apperrors.ErrCourseNotFound,
			status:   http.StatusNotFound,
			code:     dto.ErrorCodeResourceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUploadRouter(&stubUploads{err: tt.err}, tt.maxBytes)
			fileField := ""
			if tt.file != "" {
				fileField = "file"
			}
			body, ct := multipartBody(t, tt.fields, fileField, "cmpe101.csv", tt.file)

			w := serve(router, http.MethodPost, "/uploads", body, ct)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			env := decode(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestReupload(t *testing.T) {
	uploads := &stubUploads{}
	router := newUploadRouter(uploads, 1<<20)

	body, ct := multipartBody(t, nil, "file", "v2.csv", outcomeCSV)
	w := serve(router, http.MethodPut, "/files/7", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(7), uploads.got.FileID)
	assert.Equal(t, "v2.csv", uploads.got.In.FileName)

	body, ct = multipartBody(t, nil, "file", "v2.csv", outcomeCSV)
	w = serve(router, http.MethodPut, "/files/abc", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newReportRouter(reports *stubReports) *gin.Engine {
	c := NewReportController(reports, zerolog.Nop())
	r := gin.New()
	r.POST("/reports/export", c.Export)
	r.GET("/reports/course-status", c.CourseStatus)
	r.GET("/reports/:taskId/status", c.Status)
	r.GET("/reports/:taskId/download", c.Download)
	return r
}

func TestReportExport(t *testing.T) {
	reports := &stubReports{}
	router := newReportRouter(reports)

	w := serve(router, http.MethodPost, "/reports/export", bytes.NewBufferString(`{"semesters":[1,2],"curriculum_id":3}`), "application/json")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.JSONEq(t, `{"task_id":"2f1c6a40-5b7e-4c41-8c0c-1d7b5d7f0f1e"}`, string(decode(t, w).Data))
	require.NotNil(t, reports.export)
	assert.Equal(t, []int64{1, 2}, reports.export.Semesters)

	w = serve(router, http.MethodPost, "/reports/export", bytes.NewBufferString(`{"semesters":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportStatus(t *testing.T) {
	router := newReportRouter(&stubReports{})

	w := serve(router, http.MethodGet, "/reports/unknown/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"task_id":"unknown","status":"PENDING"}`, string(decode(t, w).Data))
}

func TestReportDownload(t *testing.T) {
	reports := &stubReports{download: &services.Download{
		FileName:    "report.csv",
		ContentType: "text/csv; charset=utf-8",
		Body:        []byte("student_id,name\n"),
	}}
	router := newReportRouter(reports)

	w := serve(router, http.MethodGet, "/reports/abc/download?format=csv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="report.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "student_id,name\n", w.Body.String())
}

func TestReportDownloadErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperrors.ErrTaskNotReady, http.StatusConflict},
		{apperrors.NewCustomError(apperrors.ErrNoDifference, "No difference between the chosen semester groups has been detected."), http.StatusNotFound},
		{apperrors.ErrTaskNotFound, http.StatusNotFound},
		{apperrors.NewBadRequestError(`Unsupported format "pdf", use csv or xlsx.`), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			router := newReportRouter(&stubReports{err: tt.err})
			w := serve(router, http.MethodGet, "/reports/abc/download", nil, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Content-Disposition"))
		})
	}
}

func TestCourseStatus(t *testing.T) {
	reports := &stubReports{}
	router := newReportRouter(reports)

	w := serve(router, http.MethodGet, "/reports/course-status?semester_id=4", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), reports.semester)

	for _, q := range []string{"", "?semester_id=x", "?semester_id=0"} {
		w = serve(router, http.MethodGet, "/reports/course-status"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestCatalogFilters(t *testing.T) {
	catalog := &stubCatalog{}
	c := NewCatalogController(catalog, zerolog.Nop())
	router := gin.New()
	router.GET("/program-outcome-results", c.ListResults)
	router.GET("/semesters", c.ListSemesters)

	w := serve(router, http.MethodGet, "/program-outcome-results?student_id=5&program_outcome_id=2&page=2&size=10", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, catalog.filter.StudentID)
	assert.Equal(t, int64(5), *catalog.filter.StudentID)
	require.NotNil(t, catalog.filter.ProgramOutcomeID)
	assert.Equal(t, int64(2), *catalog.filter.ProgramOutcomeID)
	assert.Nil(t, catalog.filter.SemesterID)
	assert.Contains(t, string(decode(t, w).Data), `"currentPage":2`)

	w = serve(router, http.MethodGet, "/program-outcome-results?student_id=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/semesters?active=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, catalog.activeOnly)
}

func TestUpdateRegistration(t *testing.T) {
	put := func(settings *stubSettings, body string) *httptest.ResponseRecorder {
		c := NewSettingController(settings, zerolog.Nop())
		router := gin.New()
		router.PUT("/admin/settings/registration", c.UpdateRegistration)
		return serve(router, http.MethodPut, "/admin/settings/registration", bytes.NewBufferString(body), "application/json")
	}

	w := put(&stubSettings{}, `{"open":true,"version":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"open":true,"version":4}`, string(decode(t, w).Data))

	w = put(&stubSettings{err: apperrors.ErrStaleSetting}, `{"open":true,"version":2}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = put(&stubSettings{}, `{"version":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "Open"), w.Body.String())
}
