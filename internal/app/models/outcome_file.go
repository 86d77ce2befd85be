package models

import "time"

// ProgramOutcomeFile is one stored upload
type ProgramOutcomeFile struct {
	ID           int64     `json:"id" db:"id" example:"1"`
	UserID       int64     `json:"userId" db:"user_id"`
	SemesterID   int64     `json:"semesterId" db:"semester_id"`
	CourseID     int64     `json:"courseId" db:"course_id"`
	FilePath     string    `json:"filePath" db:"file_path" example:"uploads/2020-2021 Fall/user_tustunkok/3f2a.csv"`
	OriginalName string    `json:"originalName" db:"original_name" example:"cmpe101.csv"`
	UploadedAt   time.Time `json:"uploadedAt" db:"uploaded_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	// Joined for listings
	Username      string `json:"username,omitempty"`
	CourseCode    string `json:"courseCode,omitempty"`
	SemesterLabel string `json:"semesterLabel,omitempty"`
}
