package dto

// ActiveFilter narrows a listing to active records
type ActiveFilter struct {
	Active bool `form:"active"`
}

// ResultQuery filters program outcome results
type ResultQuery struct {
	StudentID        *int64 `form:"student_id" binding:"omitempty,min=1"`
	ProgramOutcomeID *int64 `form:"program_outcome_id" binding:"omitempty,min=1"`
	SemesterID       *int64 `form:"semester_id" binding:"omitempty,min=1"`
	CourseID         *int64 `form:"course_id" binding:"omitempty,min=1"`
}
