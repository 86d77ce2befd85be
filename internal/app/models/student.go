package models

import "time"

// Student defines the student model based on the 'students' table. A set
// GraduatedOn retires the student from reports.
type Student struct {
	ID                 int64      `json:"id" db:"id" example:"1"`
	No                 string     `json:"no" db:"no" example:"44629785700"` // Institution number
	Name               string     `json:"name" db:"name" example:"Ada Lovelace"`
	TransferStudent    bool       `json:"transferStudent" db:"transfer_student"`
	DoubleMajorStudent bool       `json:"doubleMajorStudent" db:"double_major_student"`
	GraduatedOn        *time.Time `json:"graduatedOn,omitempty" db:"graduated_on"`
	CurriculumID       *int64     `json:"curriculumId,omitempty" db:"curriculum_id"`
}
