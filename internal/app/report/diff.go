package report

// NoDifferenceMessage is shown when two semester groups produce the same
// averages
const NoDifferenceMessage = "No difference between the chosen semester groups has been detected."

// DiffEntry is one cell whose average differs between the two groups
type DiffEntry struct {
	StudentNo   string `json:"student_no"`
	StudentName string `json:"student_name"`
	Outcome     string `json:"outcome"`
	First       Cell   `json:"first"`
	Second      Cell   `json:"second"`
}

// DiffResult lists every differing average. Outcomes holds, in column order,
// the outcomes that differ for at least one student.
type DiffResult struct {
	Identical   bool        `json:"identical"`
	FirstLabel  string      `json:"first_label"`
	SecondLabel string      `json:"second_label"`
	Outcomes    []string    `json:"outcomes"`
	Entries     []DiffEntry `json:"entries"`
}

// Diff compares the average columns of two tables. Students are matched by
// number and outcomes by code; a student or outcome present in only one table
// compares against empty cells.
func Diff(first, second *Table, firstLabel, secondLabel string) *DiffResult {
	a := AverageOnly(first)
	b := AverageOnly(second)

	outcomes := unionOutcomes(a, b)
	colA := outcomeColumns(a)
	colB := outcomeColumns(b)

	type student struct {
		no, name string
	}
	var students []student
	rowsA := make(map[string]Row, len(a.Rows))
	rowsB := make(map[string]Row, len(b.Rows))
	for _, r := range a.Rows {
		rowsA[r.StudentNo] = r
		students = append(students, student{r.StudentNo, r.StudentName})
	}
	for _, r := range b.Rows {
		rowsB[r.StudentNo] = r
		if _, ok := rowsA[r.StudentNo]; !ok {
			students = append(students, student{r.StudentNo, r.StudentName})
		}
	}

	res := &DiffResult{FirstLabel: firstLabel, SecondLabel: secondLabel}
	differs := make(map[string]bool)
	for _, s := range students {
		for _, outcome := range outcomes {
			x := cellAt(rowsA, colA, s.no, outcome)
			y := cellAt(rowsB, colB, s.no, outcome)
			if x == y {
				continue
			}
			differs[outcome] = true
			res.Entries = append(res.Entries, DiffEntry{
				StudentNo:   s.no,
				StudentName: s.name,
				Outcome:     outcome,
				First:       x,
				Second:      y,
			})
		}
	}

	for _, outcome := range outcomes {
		if differs[outcome] {
			res.Outcomes = append(res.Outcomes, outcome)
		}
	}
	res.Identical = len(res.Entries) == 0
	return res
}

// StudentDiff groups a student's entries by outcome for rendering
type StudentDiff struct {
	StudentNo   string
	StudentName string
	First       []Cell
	Second      []Cell
}

// ByStudent lays the entries out as one pair of rows per student, aligned
// with d.Outcomes. Outcomes that did not change for the student stay empty.
func (d *DiffResult) ByStudent() []StudentDiff {
	index := make(map[string]int, len(d.Outcomes))
	for i, o := range d.Outcomes {
		index[o] = i
	}

	var out []StudentDiff
	pos := make(map[string]int)
	for _, e := range d.Entries {
		i, ok := pos[e.StudentNo]
		if !ok {
			i = len(out)
			pos[e.StudentNo] = i
			out = append(out, StudentDiff{
				StudentNo:   e.StudentNo,
				StudentName: e.StudentName,
				First:       make([]Cell, len(d.Outcomes)),
				Second:      make([]Cell, len(d.Outcomes)),
			})
		}
		col := index[e.Outcome]
		out[i].First[col] = e.First
		out[i].Second[col] = e.Second
	}
	return out
}

func unionOutcomes(a, b *Table) []string {
	out := a.Outcomes()
	seen := make(map[string]bool, len(out))
	for _, o := range out {
		seen[o] = true
	}
	for _, o := range b.Outcomes() {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

func outcomeColumns(t *Table) map[string]int {
	cols := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		cols[c.Outcome] = i
	}
	return cols
}

func cellAt(rows map[string]Row, cols map[string]int, studentNo, outcome string) Cell {
	r, ok := rows[studentNo]
	if !ok {
		return Cell{}
	}
	c, ok := cols[outcome]
	if !ok {
		return Cell{}
	}
	return r.Cells[c]
}
