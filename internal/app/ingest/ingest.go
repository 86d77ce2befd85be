// Package ingest validates uploaded program outcome CSV files before any of
// their rows are written.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// Cell values accepted in outcome columns
const (
	CellUnassessed = "U"
	CellMastered   = "M"
	CellSatisfied  = "1"
	CellFailed     = "0"
)

const (
	headerStudentID = "student_id"
	headerName      = "name"
)

// Sheet is a structurally valid upload
type Sheet struct {
	Encoding  Encoding
	Delimiter rune
	Outcomes  []string
	Rows      []Row
}

// Row is one student line of a sheet. Cells are aligned with Sheet.Outcomes.
type Row struct {
	Line      int
	StudentNo string
	Name      string
	Cells     []string
}

// Unassessed reports whether the student was not assessed in any outcome
func (r Row) Unassessed() bool {
	for _, c := range r.Cells {
		if c != CellUnassessed {
			return false
		}
	}
	return len(r.Cells) > 0
}

// Satisfaction returns 1 when the i-th outcome is satisfied, 0 otherwise
func (r Row) Satisfaction(i int) int {
	switch r.Cells[i] {
	case CellSatisfied, CellMastered:
		return 1
	default:
		return 0
	}
}

// Parse runs the structural checks on an upload: extension, encoding,
// delimiter, header, exempt marking and cell alphabet.
func Parse(fileName string, data []byte) (*Sheet, error) {
	if ext := filepath.Ext(fileName); !strings.EqualFold(ext, ".csv") {
		return nil, newError(WrongFileType, "File type should be CSV. Not %s", strings.TrimPrefix(ext, "."))
	}

	records, enc, delim, err := ReadRecords(data)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, malformedHeader()
	}
	header := trimAll(records[0].Fields)
	if len(header) < 3 || header[0] != headerStudentID || header[1] != headerName {
		return nil, malformedHeader()
	}
	if len(uniqueSorted(header[2:])) != len(header)-2 {
		return nil, malformedHeader()
	}

	sheet := &Sheet{
		Encoding:  enc,
		Delimiter: delim,
		Outcomes:  header[2:],
		Rows:      make([]Row, 0, len(records)-1),
	}

	for _, rec := range records[1:] {
		if len(rec.Fields) != len(header) {
			return nil, &ValidationError{
				Kind:    ParseFailure,
				Message: fmt.Sprintf("Line %d has %d fields, expected %d.", rec.Line, len(rec.Fields), len(header)),
				Lines:   []int{rec.Line},
			}
		}
		fields := trimAll(rec.Fields)
		sheet.Rows = append(sheet.Rows, Row{
			Line:      rec.Line,
			StudentNo: fields[0],
			Name:      fields[1],
			Cells:     fields[2:],
		})
	}

	if lines := partialExemptLines(sheet.Rows); len(lines) > 0 {
		return nil, newLineError(InconsistentExemptMarking, lines, "The usage of U is wrong in lines %s.")
	}
	if lines := invalidCellLines(sheet.Rows); len(lines) > 0 {
		return nil, newLineError(InvalidCellValue, lines, "Following lines have unexpected characters: %s.")
	}

	return sheet, nil
}

// CheckOutcomeSet verifies that the sheet's outcome columns are exactly the
// outcomes registered for the course
func CheckOutcomeSet(sheet *Sheet, courseCode string, courseOutcomes []string) error {
	if !sameSet(sheet.Outcomes, courseOutcomes) {
		return newError(OutcomeSetMismatch,
			"The program outcomes in the uploaded file do not match the program outcomes of the registered course for course %s.",
			courseCode)
	}
	return nil
}

// Record is one CSV record and the file line it starts on
type Record struct {
	Line   int
	Fields []string
}

// ReadRecords decodes data, sniffs its delimiter and splits it into records.
// Lines whose fields are all blank are dropped. Record lines are 1-based
// file lines, so skipped lines and quoted line breaks do not shift them.
func ReadRecords(data []byte) ([]Record, Encoding, rune, error) {
	text, enc, err := Decode(data)
	if err != nil {
		return nil, "", 0, err
	}
	delim := SniffDelimiter(text)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1

	var records []Record
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, "", 0, &ValidationError{
					Kind:    ParseFailure,
					Message: fmt.Sprintf("The file could not be parsed at line %d: %v.", perr.Line, perr.Err),
					Lines:   []int{perr.Line},
				}
			}
			return nil, "", 0, newError(ParseFailure, "The file could not be parsed: %v.", err)
		}
		if blank(rec) {
			continue
		}
		line, _ := r.FieldPos(0)
		records = append(records, Record{Line: line, Fields: rec})
	}
	return records, enc, delim, nil
}

func malformedHeader() *ValidationError {
	return newError(MalformedHeader, "The headers of the file should be student_id, name, and exact PÇ codes.")
}

func partialExemptLines(rows []Row) []int {
	var lines []int
	for _, row := range rows {
		exempt := 0
		for _, c := range row.Cells {
			if c == CellUnassessed {
				exempt++
			}
		}
		if exempt > 0 && exempt < len(row.Cells) {
			lines = append(lines, row.Line)
		}
	}
	return lines
}

func invalidCellLines(rows []Row) []int {
	var lines []int
	for _, row := range rows {
		for _, c := range row.Cells {
			if !validCell(c) {
				lines = append(lines, row.Line)
				break
			}
		}
	}
	return lines
}

func validCell(c string) bool {
	switch c {
	case CellUnassessed, CellMastered, CellSatisfied, CellFailed:
		return true
	}
	return false
}

func sameSet(a, b []string) bool {
	left := uniqueSorted(a)
	right := uniqueSorted(b)
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
