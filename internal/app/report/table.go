// Package report builds the pivoted program outcome report and compares two
// reports built from different semester groups.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CellState tells how a cell should be read
type CellState int

const (
	Empty CellState = iota
	Number
	NotApplicable
	Incomplete
)

const (
	notApplicableText = "NA"
	incompleteText    = "IN"
)

// Cell is one value of the report. Value is meaningful only for Number cells.
type Cell struct {
	State CellState
	Value float64
}

// NumberCell returns a numeric cell
func NumberCell(v float64) Cell {
	return Cell{State: Number, Value: v}
}

// IsNumber reports whether the cell holds a numeric value
func (c Cell) IsNumber() bool {
	return c.State == Number
}

// String renders the cell the way it appears in exports
func (c Cell) String() string {
	switch c.State {
	case Number:
		return strconv.FormatFloat(c.Value, 'f', -1, 64)
	case NotApplicable:
		return notApplicableText
	case Incomplete:
		return incompleteText
	default:
		return ""
	}
}

// MarshalJSON writes numbers as numbers, NA and IN as strings and empty
// cells as null
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.State {
	case Number:
		return json.Marshal(c.Value)
	case NotApplicable:
		return json.Marshal(notApplicableText)
	case Incomplete:
		return json.Marshal(incompleteText)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reverses MarshalJSON
func (c *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Cell{}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		switch text {
		case notApplicableText:
			*c = Cell{State: NotApplicable}
		case incompleteText:
			*c = Cell{State: Incomplete}
		default:
			return fmt.Errorf("unknown cell value %q", text)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid cell: %w", err)
	}
	*c = NumberCell(v)
	return nil
}

// ColumnKind distinguishes course columns from the synthetic columns
type ColumnKind string

const (
	KindCourse  ColumnKind = "course"
	KindAverage ColumnKind = "average"
	KindUnsat   ColumnKind = "unsat"
)

// Column is one inner column under an outcome
type Column struct {
	Outcome string     `json:"outcome"`
	Label   string     `json:"label"`
	Kind    ColumnKind `json:"kind"`
}

// Row holds one student's cells, aligned with Table.Columns
type Row struct {
	StudentNo   string `json:"student_no"`
	StudentName string `json:"student_name"`
	Cells       []Cell `json:"cells"`
}

// SummaryRow is a class-wide statistic per column
type SummaryRow struct {
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

// Table is a pivoted report
type Table struct {
	Columns []Column     `json:"columns"`
	Rows    []Row        `json:"rows"`
	Summary []SummaryRow `json:"summary"`
}

// Outcomes returns the outcome codes in column order
func (t *Table) Outcomes() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range t.Columns {
		if !seen[c.Outcome] {
			seen[c.Outcome] = true
			out = append(out, c.Outcome)
		}
	}
	return out
}

// AverageOnly returns a copy of the table that keeps only the average
// columns
func AverageOnly(t *Table) *Table {
	var keep []int
	out := &Table{}
	for i, c := range t.Columns {
		if c.Kind == KindAverage {
			keep = append(keep, i)
			out.Columns = append(out.Columns, c)
		}
	}

	pick := func(cells []Cell) []Cell {
		picked := make([]Cell, len(keep))
		for j, i := range keep {
			picked[j] = cells[i]
		}
		return picked
	}

	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = Row{StudentNo: r.StudentNo, StudentName: r.StudentName, Cells: pick(r.Cells)}
	}
	out.Summary = make([]SummaryRow, len(t.Summary))
	for i, s := range t.Summary {
		out.Summary[i] = SummaryRow{Label: s.Label, Cells: pick(s.Cells)}
	}
	return out
}
