package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportTask is a queued report generation request
type ReportTask struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	TaskType    TaskType        `json:"taskType" db:"task_type" example:"export"`
	Params      json.RawMessage `json:"params" db:"params" swaggertype:"object"`
	Status      TaskStatus      `json:"status" db:"status" example:"PENDING"`
	Attempts    int             `json:"attempts" db:"attempts"`
	Result      json.RawMessage `json:"-" db:"result"`
	Error       string          `json:"error,omitempty" db:"error"`
	RequestedBy *int64          `json:"requestedBy,omitempty" db:"requested_by"`
	RunAt       time.Time       `json:"runAt" db:"run_at"`
	LockedAt    *time.Time      `json:"lockedAt,omitempty" db:"locked_at"`
	FinishedAt  *time.Time      `json:"finishedAt,omitempty" db:"finished_at"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ExportParams are the parameters of an export task
type ExportParams struct {
	SemesterIDs  []int64 `json:"semesterIds"`
	CurriculumID *int64  `json:"curriculumId,omitempty"`
}

// DiffParams are the parameters of a diff task
type DiffParams struct {
	FirstSemesterIDs  []int64 `json:"firstSemesterIds"`
	SecondSemesterIDs []int64 `json:"secondSemesterIds"`
	CurriculumID      *int64  `json:"curriculumId,omitempty"`
}
