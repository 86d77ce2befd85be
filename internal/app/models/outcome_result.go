package models

import "time"

// ProgramOutcomeResult is the satisfaction of one student for one outcome of
// one course in one semester. The 4-tuple is unique.
type ProgramOutcomeResult struct {
	ID               int64     `json:"id" db:"id"`
	StudentID        int64     `json:"studentId" db:"student_id"`
	CourseID         int64     `json:"courseId" db:"course_id"`
	ProgramOutcomeID int64     `json:"programOutcomeId" db:"program_outcome_id"`
	SemesterID       int64     `json:"semesterId" db:"semester_id"`
	Satisfaction     int       `json:"satisfaction" db:"satisfaction" example:"1"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`

	// Joined for listings
	StudentNo     string `json:"studentNo,omitempty"`
	CourseCode    string `json:"courseCode,omitempty"`
	OutcomeCode   string `json:"outcomeCode,omitempty"`
	SemesterLabel string `json:"semesterLabel,omitempty"`
}

// ResultWrite is one satisfaction value to insert or update
type ResultWrite struct {
	StudentID        int64
	CourseID         int64
	ProgramOutcomeID int64
	SemesterID       int64
	Satisfaction     int
}

// UpsertSummary counts what a batch of writes did
type UpsertSummary struct {
	Created    int
	Updated    int
	Superseded int // results of other semesters removed by the recency policy
}

// ResultFilter narrows result listings
type ResultFilter struct {
	StudentID        *int64
	ProgramOutcomeID *int64
	SemesterID       *int64
	CourseID         *int64
}

// ReportRecord is a stored result joined with the codes the report needs
type ReportRecord struct {
	StudentNo    string
	OutcomeCode  string
	CourseCode   string
	Satisfaction int
}
