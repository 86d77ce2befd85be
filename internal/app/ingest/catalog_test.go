package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExemptions(t *testing.T) {
	data := []byte("student_id;note;course_code;semester\n" +
		"44629785700;x;CMPE101;2020-2021 Fall\n" +
		"44629785701;;CMPE102;2021-2022 Spring\n")

	got, err := ParseExemptions(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Exemption{
		Line:         2,
		StudentNo:    "44629785700",
		CourseCode:   "CMPE101",
		YearInterval: "2020-2021",
		PeriodName:   "Fall",
	}, got[0])
	assert.Equal(t, "Spring", got[1].PeriodName)
}

func TestParseExemptionsColumnCount(t *testing.T) {
	_, err := ParseExemptions([]byte("a,b,c\n1,2,3\n"))

	verr := validationKind(t, err)
	assert.Equal(t, MalformedHeader, verr.Kind)
	assert.Equal(t, "CSV file should have exactly 4 columns. Found 3 columns.", verr.Message)
}

func TestParseExemptionsBadSemesterLabel(t *testing.T) {
	_, err := ParseExemptions([]byte("a,b,c,d\n1,,CMPE101,2020-2021\n"))

	verr := validationKind(t, err)
	assert.Equal(t, ParseFailure, verr.Kind)
	assert.Equal(t, []int{2}, verr.Lines)
}

func TestParseStudents(t *testing.T) {
	data := []byte("student_id,name,transfer_student,double_major_student,graduated_on\n" +
		"44629785700,Ada,True,,\n" +
		"44629785701,Alan,,1,15/06/2021\n")

	got, err := ParseStudents(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].Transfer)
	assert.False(t, got[0].DoubleMajor)
	assert.Nil(t, got[0].GraduatedOn)

	require.NotNil(t, got[1].GraduatedOn)
	assert.Equal(t, time.Date(2021, time.June, 15, 0, 0, 0, 0, time.UTC), *got[1].GraduatedOn)
	assert.True(t, got[1].DoubleMajor)
}

func TestParseStudentsBadDate(t *testing.T) {
	data := []byte("student_id,name,transfer_student,double_major_student,graduated_on\n44629785700,Ada,,,2021-06-15\n")

	_, err := ParseStudents(data)
	verr := validationKind(t, err)
	assert.Equal(t, ParseFailure, verr.Kind)
}

func TestParseStudentsMissingColumn(t *testing.T) {
	_, err := ParseStudents([]byte("student_id,name\n1,Ada\n"))

	verr := validationKind(t, err)
	assert.Equal(t, MalformedHeader, verr.Kind)
	assert.Contains(t, verr.Message, "transfer_student")
}

func TestParseCourseOutcomes(t *testing.T) {
	got, err := ParseCourseOutcomes([]byte("course_code,pos\nCMPE101,PO1-PO2- PO3\nCMPE102,\n"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"PO1", "PO2", "PO3"}, got[0].OutcomeCodes)
	assert.Empty(t, got[1].OutcomeCodes)
}

func TestParseCatalogRejectsMalformedCodes(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) error
		data  string
		line  int
	}{
		{
			name:  "student number with letters",
			parse: func(b []byte) error { _, err := ParseStudents(b); return err },
			data:  "student_id,name,transfer_student,double_major_student,graduated_on\n44629785700,Ada,,,\n4462A,Alan,,,\n",
			line:  3,
		},
		{
			name:  "empty student number",
			parse: func(b []byte) error { _, err := ParseStudents(b); return err },
			data:  "student_id,name,transfer_student,double_major_student,graduated_on\n,Ada,,,\n",
			line:  2,
		},
		{
			name:  "course code without digits",
			parse: func(b []byte) error { _, err := ParseCourses(b); return err },
			data:  "course_code,course_name\nCE101,Programming\nCOMPUTING,Intro\n",
			line:  3,
		},
		{
			name:  "outcome code with spaces",
			parse: func(b []byte) error { _, err := ParseOutcomes(b); return err },
			data:  "po_code,po_desc\nPO 1,Math\n",
			line:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := validationKind(t, tt.parse([]byte(tt.data)))
			assert.Equal(t, ParseFailure, verr.Kind)
			assert.Equal(t, []int{tt.line}, verr.Lines)
		})
	}
}

func TestParseCoursesAcceptsCodeStyles(t *testing.T) {
	got, err := ParseCourses([]byte("course_code,course_name\nCE101,Programming\nMATH 152,Calculus\nSE-302,Testing\n"))
	require.NoError(t, err)
	assert.Equal(t, []CourseRecord{
		{Code: "CE101", Name: "Programming"},
		{Code: "MATH 152", Name: "Calculus"},
		{Code: "SE-302", Name: "Testing"},
	}, got)
}

func TestParseExemptionsReportsFileLines(t *testing.T) {
	_, err := ParseExemptions([]byte("a,b,c,d\n\n1,,CMPE101,2020-2021 Fall\n\n2,,CMPE101,2021\n"))

	verr := validationKind(t, err)
	assert.Equal(t, []int{5}, verr.Lines)
}
