package models

// Course defines the course model. ProgramOutcomes is the set of outcome
// codes an upload for the course must carry.
type Course struct {
	ID   int64  `json:"id" db:"id" example:"1"`
	Code string `json:"code" db:"code" example:"CMPE101"`
	Name string `json:"name" db:"name" example:"Introduction to Programming"`

	// Relations (populated when needed)
	ProgramOutcomes []ProgramOutcome `json:"programOutcomes,omitempty"`
}

// OutcomeCodes returns the codes of the course's program outcomes
func (c *Course) OutcomeCodes() []string {
	codes := make([]string, len(c.ProgramOutcomes))
	for i, po := range c.ProgramOutcomes {
		codes[i] = po.Code
	}
	return codes
}
