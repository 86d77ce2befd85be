package dto

import (
	"time"

	"github.com/tustunkok/pc-link/internal/app/models"
)

// UploadRequest carries the form fields sent with an outcome file
type UploadRequest struct {
	CourseCode string `form:"course_code" binding:"required,max=20,coursecode"`
	SemesterID int64  `form:"semester_id" binding:"required,min=1"`
}

// UploadResponse reports what an upload wrote
type UploadResponse struct {
	FileID            int64  `json:"fileId" example:"12"`
	ProcessedStudents int    `json:"processedStudents" example:"42"`
	Created           int    `json:"created" example:"120"`
	Updated           int    `json:"updated" example:"6"`
	Superseded        int    `json:"superseded" example:"0"`
	SkippedStudents   int    `json:"skippedStudents" example:"1"`
	Success           bool   `json:"success" example:"true"`
	Message           string `json:"message,omitempty"`
}

// ExemptionResponse reports what an exemption upload wrote
type ExemptionResponse struct {
	Rows    int `json:"rows" example:"3"`
	Created int `json:"created" example:"12"`
	Updated int `json:"updated" example:"0"`
}

// FileResponse describes a stored outcome file
type FileResponse struct {
	ID            int64     `json:"id" example:"12"`
	OriginalName  string    `json:"originalName" example:"cmpe101.csv"`
	CourseCode    string    `json:"courseCode" example:"CMPE101"`
	SemesterLabel string    `json:"semesterLabel" example:"2020-2021 Fall"`
	Username      string    `json:"username" example:"tustunkok"`
	UploadedAt    time.Time `json:"uploadedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromOutcomeFile converts a models.ProgramOutcomeFile to a FileResponse
func FromOutcomeFile(f *models.ProgramOutcomeFile) FileResponse {
	return FileResponse{
		ID:            f.ID,
		OriginalName:  f.OriginalName,
		CourseCode:    f.CourseCode,
		SemesterLabel: f.SemesterLabel,
		Username:      f.Username,
		UploadedAt:    f.UploadedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ImportResponse reports the result of a catalog import
type ImportResponse struct {
	StudentsCreated int `json:"studentsCreated,omitempty"`
	StudentsUpdated int `json:"studentsUpdated,omitempty"`
	ProgramOutcomes int `json:"programOutcomes,omitempty"`
	Courses         int `json:"courses,omitempty"`
	CourseOutcomes  int `json:"courseOutcomes,omitempty"`
}

// FileDeleteResponse reports what deleting an outcome file removed
type FileDeleteResponse struct {
	FileID         int64 `json:"fileId" example:"12"`
	RemovedResults int64 `json:"removedResults" example:"126"`
}

// RecalculateResponse reports the result of replaying every stored file
type RecalculateResponse struct {
	Files          int   `json:"files"`
	Failed         int   `json:"failed"`
	Created        int   `json:"created"`
	RemovedResults int64 `json:"removedResults"`
}
