package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// WriteXLSX renders the table as a workbook with the same layout as
// WriteCSV. Outcome header cells are merged across their columns.
func WriteXLSX(w io.Writer, t *Table) error {
	outer := []string{"student_id", "name"}
	inner := []string{"", ""}
	for _, c := range t.Columns {
		outer = append(outer, c.Outcome)
		inner = append(inner, c.Label)
	}

	rows := make([][]interface{}, 0, len(t.Rows)+len(t.Summary))
	for _, r := range t.Rows {
		rows = append(rows, append([]interface{}{r.StudentNo, r.StudentName}, cellValues(r.Cells)...))
	}
	for _, s := range t.Summary {
		rows = append(rows, append([]interface{}{SummaryIndexLabel, s.Label}, cellValues(s.Cells)...))
	}

	return writeWorkbook(w, outer, inner, 2, rows)
}

// WriteDiffXLSX renders a diff with the same layout as WriteDiffCSV
func WriteDiffXLSX(w io.Writer, d *DiffResult) error {
	outer := []string{"student_id", "name", "semester"}
	inner := []string{"", "", ""}
	for _, o := range d.Outcomes {
		outer = append(outer, o)
		inner = append(inner, o+averageLabelSuffix)
	}

	var rows [][]interface{}
	for _, s := range d.ByStudent() {
		rows = append(rows,
			append([]interface{}{s.StudentNo, s.StudentName, d.FirstLabel}, cellValues(s.First)...),
			append([]interface{}{s.StudentNo, s.StudentName, d.SecondLabel}, cellValues(s.Second)...),
		)
	}

	return writeWorkbook(w, outer, inner, 3, rows)
}

// writeWorkbook writes the two header rows, merging runs of equal outer
// header cells after the first indexColumns columns, then the data rows
func writeWorkbook(w io.Writer, outer, inner []string, indexColumns int, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	if err := setRow(f, 1, toInterfaces(outer)); err != nil {
		return err
	}
	if err := setRow(f, 2, toInterfaces(inner)); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	if err := styleRange(f, 1, 1, 2, len(outer), headerStyle); err != nil {
		return err
	}

	for start := indexColumns; start < len(outer); {
		end := start
		for end+1 < len(outer) && outer[end+1] == outer[start] {
			end++
		}
		if end > start {
			from, err := cellName(start+1, 1)
			if err != nil {
				return err
			}
			to, err := cellName(end+1, 1)
			if err != nil {
				return err
			}
			if err := f.MergeCell(sheetName, from, to); err != nil {
				return fmt.Errorf("error merging header cells: %w", err)
			}
		}
		start = end + 1
	}

	for i, row := range rows {
		if err := setRow(f, i+3, row); err != nil {
			return err
		}
	}

	topLeft, err := cellName(indexColumns+1, 3)
	if err != nil {
		return err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      indexColumns,
		YSplit:      2,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("error freezing header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := cellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("error writing row %d: %w", row, err)
	}
	return nil
}

func styleRange(f *excelize.File, fromRow, fromCol, toRow, toCol, style int) error {
	if toCol < fromCol {
		return nil
	}
	from, err := cellName(fromCol, fromRow)
	if err != nil {
		return err
	}
	to, err := cellName(toCol, toRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, from, to, style); err != nil {
		return fmt.Errorf("error styling header: %w", err)
	}
	return nil
}

func cellName(col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("error resolving cell: %w", err)
	}
	return cell, nil
}

func cellValues(cells []Cell) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		switch c.State {
		case Number:
			out[i] = c.Value
		case Empty:
			out[i] = nil
		default:
			out[i] = c.String()
		}
	}
	return out
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
