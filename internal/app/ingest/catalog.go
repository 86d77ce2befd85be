package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tustunkok/pc-link/internal/pkg/validation"
)

const graduationDateLayout = "02/01/2006"

// StudentRecord is one line of a student import file
type StudentRecord struct {
	StudentNo   string
	Name        string
	Transfer    bool
	DoubleMajor bool
	GraduatedOn *time.Time
	Curriculum  string
}

// OutcomeRecord is one line of a program outcome import file
type OutcomeRecord struct {
	Code        string
	Description string
}

// CourseRecord is one line of a course import file
type CourseRecord struct {
	Code string
	Name string
}

// CourseOutcomeRecord maps a course to its program outcome codes
type CourseOutcomeRecord struct {
	CourseCode   string
	OutcomeCodes []string
}

// ParseStudents reads a student import file with the columns
// student_id, name, transfer_student, double_major_student, graduated_on and
// an optional curriculum
func ParseStudents(data []byte) ([]StudentRecord, error) {
	t, err := readTable(data, "student_id", "name", "transfer_student", "double_major_student", "graduated_on")
	if err != nil {
		return nil, err
	}

	students := make([]StudentRecord, 0, len(t.rows))
	for _, row := range t.rows {
		transfer, err := parseFlag(t.get(row, "transfer_student"))
		if err != nil {
			return nil, lineFailure(row.line, err)
		}
		doubleMajor, err := parseFlag(t.get(row, "double_major_student"))
		if err != nil {
			return nil, lineFailure(row.line, err)
		}

		rec := StudentRecord{
			StudentNo:   t.get(row, "student_id"),
			Name:        t.get(row, "name"),
			Transfer:    transfer,
			DoubleMajor: doubleMajor,
			Curriculum:  t.get(row, "curriculum"),
		}
		if raw := t.get(row, "graduated_on"); raw != "" {
			graduated, err := time.Parse(graduationDateLayout, raw)
			if err != nil {
				return nil, lineFailure(row.line, fmt.Errorf("graduation date %q should be dd/mm/yyyy", raw))
			}
			rec.GraduatedOn = &graduated
		}
		if err := checkCode(row.line, "student_id", rec.StudentNo, validation.CompiledPatterns.StudentNo); err != nil {
			return nil, err
		}
		students = append(students, rec)
	}
	return students, nil
}

// ParseOutcomes reads a po_code, po_desc file
func ParseOutcomes(data []byte) ([]OutcomeRecord, error) {
	t, err := readTable(data, "po_code", "po_desc")
	if err != nil {
		return nil, err
	}
	out := make([]OutcomeRecord, 0, len(t.rows))
	for _, row := range t.rows {
		if err := checkCode(row.line, "po_code", t.get(row, "po_code"), validation.CompiledPatterns.OutcomeCode); err != nil {
			return nil, err
		}
		out = append(out, OutcomeRecord{Code: t.get(row, "po_code"), Description: t.get(row, "po_desc")})
	}
	return out, nil
}

// ParseCourses reads a course_code, course_name file
func ParseCourses(data []byte) ([]CourseRecord, error) {
	t, err := readTable(data, "course_code", "course_name")
	if err != nil {
		return nil, err
	}
	out := make([]CourseRecord, 0, len(t.rows))
	for _, row := range t.rows {
		if err := checkCode(row.line, "course_code", t.get(row, "course_code"), validation.CompiledPatterns.CourseCode); err != nil {
			return nil, err
		}
		out = append(out, CourseRecord{Code: t.get(row, "course_code"), Name: t.get(row, "course_name")})
	}
	return out, nil
}

// ParseCourseOutcomes reads a course_code, pos file where pos lists outcome
// codes separated by dashes
func ParseCourseOutcomes(data []byte) ([]CourseOutcomeRecord, error) {
	t, err := readTable(data, "course_code", "pos")
	if err != nil {
		return nil, err
	}
	out := make([]CourseOutcomeRecord, 0, len(t.rows))
	for _, row := range t.rows {
		var codes []string
		for _, code := range strings.Split(t.get(row, "pos"), "-") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
		out = append(out, CourseOutcomeRecord{CourseCode: t.get(row, "course_code"), OutcomeCodes: codes})
	}
	return out, nil
}

type tableRow struct {
	line   int
	fields []string
}

type table struct {
	columns map[string]int
	rows    []tableRow
}

func (t *table) get(row tableRow, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row.fields) {
		return ""
	}
	return row.fields[idx]
}

func readTable(data []byte, required ...string) (*table, error) {
	records, _, _, err := ReadRecords(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, newError(MalformedHeader, "The file should have the columns %s.", strings.Join(required, ", "))
	}

	t := &table{columns: make(map[string]int)}
	for i, name := range trimAll(records[0].Fields) {
		t.columns[name] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := t.columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, newError(MalformedHeader, "The file is missing the columns %s.", strings.Join(missing, ", "))
	}

	for _, rec := range records[1:] {
		t.rows = append(t.rows, tableRow{line: rec.Line, fields: trimAll(rec.Fields)})
	}
	return t, nil
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "0", "false", "no":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	}
	return false, fmt.Errorf("%q is not a boolean", raw)
}

// checkCode rejects an empty or malformed identifier column
func checkCode(line int, column, value string, pattern *regexp.Regexp) error {
	if err := validation.NewStringValidation(column, value).WithPattern(pattern).Validate(); err != nil {
		return lineFailure(line, err)
	}
	return nil
}

func lineFailure(line int, err error) *ValidationError {
	return &ValidationError{
		Kind:    ParseFailure,
		Message: fmt.Sprintf("Line %d: %v.", line, err),
		Lines:   []int{line},
	}
}
