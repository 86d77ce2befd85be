package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV renders the table with a two row header: outcome codes first,
// inner column labels second. Summary rows follow the student rows.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	outer := []string{"student_id", "name"}
	inner := []string{"", ""}
	for _, c := range t.Columns {
		outer = append(outer, c.Outcome)
		inner = append(inner, c.Label)
	}
	if err := cw.Write(outer); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	if err := cw.Write(inner); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	for _, r := range t.Rows {
		if err := cw.Write(append([]string{r.StudentNo, r.StudentName}, cellStrings(r.Cells)...)); err != nil {
			return fmt.Errorf("error writing row: %w", err)
		}
	}
	for _, s := range t.Summary {
		if err := cw.Write(append([]string{SummaryIndexLabel, s.Label}, cellStrings(s.Cells)...)); err != nil {
			return fmt.Errorf("error writing summary: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDiffCSV renders a diff as two rows per student, one per semester
// group, with a column per differing outcome
func WriteDiffCSV(w io.Writer, d *DiffResult) error {
	cw := csv.NewWriter(w)

	outer := []string{"student_id", "name", "semester"}
	inner := []string{"", "", ""}
	for _, o := range d.Outcomes {
		outer = append(outer, o)
		inner = append(inner, o+averageLabelSuffix)
	}
	if err := cw.Write(outer); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	if err := cw.Write(inner); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	for _, s := range d.ByStudent() {
		first := append([]string{s.StudentNo, s.StudentName, d.FirstLabel}, cellStrings(s.First)...)
		second := append([]string{s.StudentNo, s.StudentName, d.SecondLabel}, cellStrings(s.Second)...)
		if err := cw.WriteAll([][]string{first, second}); err != nil {
			return fmt.Errorf("error writing row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func cellStrings(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}
