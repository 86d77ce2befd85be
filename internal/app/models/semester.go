package models

// Semester defines an academic period. PeriodOrderValue sorts semesters
// chronologically; only active semesters accept uploads.
type Semester struct {
	ID               int64  `json:"id" db:"id" example:"1"`
	YearInterval     string `json:"yearInterval" db:"year_interval" example:"2020-2021"`
	PeriodName       string `json:"periodName" db:"period_name" example:"Fall"`
	PeriodOrderValue int    `json:"periodOrderValue" db:"period_order_value" example:"1"`
	Active           bool   `json:"active" db:"active"`
}

// Label is the display name, e.g. "2020-2021 Fall"
func (s *Semester) Label() string {
	return s.YearInterval + " " + s.PeriodName
}
