package models

// DefaultCurriculumName is the curriculum seeded with every course
const DefaultCurriculumName = "Default Curriculum"

// Curriculum groups students and the courses that apply to them
type Curriculum struct {
	ID        int64   `json:"id" db:"id" example:"1"`
	Name      string  `json:"name" db:"name" example:"Default Curriculum"`
	CourseIDs []int64 `json:"courseIds,omitempty"`
}
