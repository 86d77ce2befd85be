package dto

import "github.com/tustunkok/pc-link/internal/app/models"

// ExportRequest asks for a report over a set of semesters
type ExportRequest struct {
	Semesters    []int64 `json:"semesters" binding:"required,min=1,dive,min=1"`
	CurriculumID *int64  `json:"curriculum_id" binding:"omitempty,min=1"`
}

// DiffRequest asks for the difference between two semester groups
type DiffRequest struct {
	FirstSemesters  []int64 `json:"first_semesters" binding:"required,min=1,dive,min=1"`
	SecondSemesters []int64 `json:"second_semesters" binding:"required,min=1,dive,min=1"`
	CurriculumID    *int64  `json:"curriculum_id" binding:"omitempty,min=1"`
}

// TaskCreatedResponse is returned when a report task is queued
type TaskCreatedResponse struct {
	TaskID string `json:"task_id" example:"2f1c6a40-5b7e-4c41-8c0c-1d7b5d7f0f1e"`
}

// TaskStatusResponse reports the state of a report task
type TaskStatusResponse struct {
	TaskID string            `json:"task_id"`
	Status models.TaskStatus `json:"status" example:"SUCCESS"`
	Error  string            `json:"error,omitempty"`
}

// CourseStatusResponse tells whether an offered course has an upload in the
// semester
type CourseStatusResponse struct {
	CourseID   int64  `json:"courseId" example:"3"`
	CourseCode string `json:"courseCode" example:"CMPE101"`
	CourseName string `json:"courseName" example:"Introduction to Programming"`
	Uploaded   bool   `json:"uploaded" example:"true"`
}
