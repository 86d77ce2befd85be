package models

// ProgramOutcome is a competency code courses contribute to
type ProgramOutcome struct {
	ID          int64  `json:"id" db:"id" example:"1"`
	Code        string `json:"code" db:"code" example:"PÇ1"`
	Description string `json:"description" db:"description"`
}
