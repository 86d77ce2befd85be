package models

// TaskStatus is the lifecycle state of a report task
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskStarted TaskStatus = "STARTED"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailure TaskStatus = "FAILURE"
)

// Finished reports whether the task reached a terminal state
func (s TaskStatus) Finished() bool {
	return s == TaskSuccess || s == TaskFailure
}

// TaskType selects the handler that runs a report task
type TaskType string

const (
	TaskTypeExport TaskType = "export"
	TaskTypeDiff   TaskType = "diff"
)

// SemesterPolicy decides what happens to results of the same student,
// course and outcome recorded in another semester
type SemesterPolicy string

const (
	// PolicyRecencyWins deletes results of other semesters before writing
	PolicyRecencyWins SemesterPolicy = "recency_wins"
	// PolicyAccumulate keeps one result per semester
	PolicyAccumulate SemesterPolicy = "accumulate"
)
