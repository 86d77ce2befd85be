package report

// Summary row labels
const (
	SummaryAssessed    = "Total Number of Assessed Students"
	SummarySuccessful  = "Number of Successful Students"
	SummarySuccessRate = "Successful Student Percentage"
	SummaryFailureRate = "Unsuccessful Student Percentage"
	SummaryIndexLabel  = "Analysis"
)

const (
	averageLabelSuffix = " AVG"
	unsatLabelSuffix   = " #UNSAT"
	failureRateNoData  = -1
	satisfiedThreshold = 0.5
)

// OutcomeCourses lists the courses contributing to an outcome
type OutcomeCourses struct {
	Outcome string
	Courses []string
}

// StudentRef identifies a report row
type StudentRef struct {
	No   string
	Name string
}

// Record is one stored satisfaction value. Records must be ordered
// chronologically; a later record for the same cell replaces an earlier one.
type Record struct {
	StudentNo    string
	Outcome      string
	Course       string
	Satisfaction int
}

// Input is everything Build needs
type Input struct {
	Outcomes []OutcomeCourses
	Students []StudentRef
	Records  []Record
}

type cellKey struct {
	outcome string
	course  string
}

// Build pivots the records into a table with one row per student and, per
// outcome, one column per course followed by an average and an unsatisfied
// count column. Records of unknown students or of course/outcome pairs that
// are not part of the layout are ignored.
func Build(in Input) *Table {
	t := &Table{}
	courseColumn := make(map[cellKey]int)
	type outcomeSpan struct {
		courses []int
		average int
		unsat   int
	}
	spans := make([]outcomeSpan, 0, len(in.Outcomes))

	for _, oc := range in.Outcomes {
		span := outcomeSpan{}
		for _, course := range oc.Courses {
			courseColumn[cellKey{oc.Outcome, course}] = len(t.Columns)
			span.courses = append(span.courses, len(t.Columns))
			t.Columns = append(t.Columns, Column{Outcome: oc.Outcome, Label: course, Kind: KindCourse})
		}
		span.average = len(t.Columns)
		t.Columns = append(t.Columns, Column{Outcome: oc.Outcome, Label: oc.Outcome + averageLabelSuffix, Kind: KindAverage})
		span.unsat = len(t.Columns)
		t.Columns = append(t.Columns, Column{Outcome: oc.Outcome, Label: oc.Outcome + unsatLabelSuffix, Kind: KindUnsat})
		spans = append(spans, span)
	}

	rowIndex := make(map[string]int, len(in.Students))
	t.Rows = make([]Row, len(in.Students))
	for i, s := range in.Students {
		rowIndex[s.No] = i
		t.Rows[i] = Row{StudentNo: s.No, StudentName: s.Name, Cells: make([]Cell, len(t.Columns))}
	}

	for _, rec := range in.Records {
		r, ok := rowIndex[rec.StudentNo]
		if !ok {
			continue
		}
		c, ok := courseColumn[cellKey{rec.Outcome, rec.Course}]
		if !ok {
			continue
		}
		t.Rows[r].Cells[c] = NumberCell(float64(rec.Satisfaction))
	}

	for _, row := range t.Rows {
		for _, span := range spans {
			row.Cells[span.average] = average(row.Cells, span.courses)
			row.Cells[span.unsat] = NumberCell(float64(countUnsatisfied(row.Cells, span.courses)))
		}
	}

	t.Summary = summarize(t)
	return t
}

// average applies the majority rule: no recorded value gives NA, more than
// half of the courses missing gives IN, otherwise a mean below one half is 0
// and anything else is 1.
func average(cells []Cell, columns []int) Cell {
	recorded, sum := 0, 0.0
	for _, i := range columns {
		if cells[i].IsNumber() {
			recorded++
			sum += cells[i].Value
		}
	}
	if recorded == 0 {
		return Cell{State: NotApplicable}
	}
	missing := len(columns) - recorded
	if missing*2 > len(columns) {
		return Cell{State: Incomplete}
	}
	if sum/float64(recorded) < satisfiedThreshold {
		return NumberCell(0)
	}
	return NumberCell(1)
}

func countUnsatisfied(cells []Cell, columns []int) int {
	n := 0
	for _, i := range columns {
		if cells[i].IsNumber() && cells[i].Value == 0 {
			n++
		}
	}
	return n
}

func summarize(t *Table) []SummaryRow {
	labels := []string{SummaryAssessed, SummarySuccessful, SummarySuccessRate, SummaryFailureRate}
	summary := make([]SummaryRow, len(labels))
	for i, l := range labels {
		summary[i] = SummaryRow{Label: l, Cells: make([]Cell, len(t.Columns))}
	}

	for c, col := range t.Columns {
		if col.Kind == KindUnsat {
			continue
		}
		count, sum := 0, 0.0
		for _, row := range t.Rows {
			if row.Cells[c].IsNumber() {
				count++
				sum += row.Cells[c].Value
			}
		}

		summary[0].Cells[c] = NumberCell(float64(count))
		summary[1].Cells[c] = NumberCell(sum)
		if count > 0 {
			summary[2].Cells[c] = NumberCell(sum / float64(count))
			summary[3].Cells[c] = NumberCell((float64(count) - sum) / float64(count))
		} else {
			summary[3].Cells[c] = NumberCell(failureRateNoData)
		}
	}
	return summary
}
