package ingest

import (
	"fmt"
	"strings"
)

const exemptionColumns = 4

// Exemption marks a student as satisfying every outcome of a course in a
// semester
type Exemption struct {
	Line         int
	StudentNo    string
	CourseCode   string
	YearInterval string
	PeriodName   string
}

// ParseExemptions reads a four column exemption file:
// student_id, an ignored column, course_code and a "<year interval> <period>"
// semester label. The first row is a header and is skipped.
func ParseExemptions(data []byte) ([]Exemption, error) {
	records, _, _, err := ReadRecords(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	if n := len(records[0].Fields); n != exemptionColumns {
		return nil, newError(MalformedHeader, "CSV file should have exactly 4 columns. Found %d columns.", n)
	}

	exemptions := make([]Exemption, 0, len(records)-1)
	for _, record := range records[1:] {
		line := record.Line
		if len(record.Fields) != exemptionColumns {
			return nil, &ValidationError{
				Kind:    ParseFailure,
				Message: fmt.Sprintf("Line %d has %d fields, expected %d.", line, len(record.Fields), exemptionColumns),
				Lines:   []int{line},
			}
		}
		rec := trimAll(record.Fields)
		year, period, ok := strings.Cut(rec[3], " ")
		if !ok || strings.TrimSpace(period) == "" {
			return nil, &ValidationError{
				Kind:    ParseFailure,
				Message: fmt.Sprintf("Semester on line %d should look like \"2020-2021 Fall\", got %q.", line, rec[3]),
				Lines:   []int{line},
			}
		}
		exemptions = append(exemptions, Exemption{
			Line:         line,
			StudentNo:    rec[0],
			CourseCode:   rec[2],
			YearInterval: year,
			PeriodName:   strings.TrimSpace(period),
		})
	}
	return exemptions, nil
}
