package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

func validationKind(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr
}

func TestParseValidFile(t *testing.T) {
	data := []byte("student_id,name,PO1, PO2 ,PO3\n" +
		"44629785700,Ada Lovelace,1,1,0\n" +
		"44629785701,Alan Turing,M,0,1\n" +
		"44629785702,Grace Hopper,U,U,U\n")

	sheet, err := Parse("cmpe101.csv", data)
	require.NoError(t, err)

	assert.Equal(t, UTF8, sheet.Encoding)
	assert.Equal(t, ',', sheet.Delimiter)
	assert.Equal(t, []string{"PO1", "PO2", "PO3"}, sheet.Outcomes)
	require.Len(t, sheet.Rows, 3)

	first := sheet.Rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "44629785700", first.StudentNo)
	assert.Equal(t, []int{1, 1, 0}, []int{first.Satisfaction(0), first.Satisfaction(1), first.Satisfaction(2)})
	assert.False(t, first.Unassessed())

	assert.Equal(t, 1, sheet.Rows[1].Satisfaction(0), "M counts as satisfied")
	assert.True(t, sheet.Rows[2].Unassessed())
}

func TestParseSemicolonFile(t *testing.T) {
	data := []byte("student_id;name;PO1;PO2\n1;Ada;1;0\n")

	sheet, err := Parse("upload.CSV", data)
	require.NoError(t, err)
	assert.Equal(t, ';', sheet.Delimiter)
	assert.Equal(t, []string{"1", "0"}, sheet.Rows[0].Cells)
}

func TestParseRejectsWrongExtension(t *testing.T) {
	_, err := Parse("upload.xlsx", []byte("student_id,name,PO1\n"))

	verr := validationKind(t, err)
	assert.Equal(t, WrongFileType, verr.Kind)
	assert.Equal(t, "File type should be CSV. Not xlsx", verr.Message)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestParseRejectsMalformedHeader(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"wrong first column", "id,name,PO1\n1,Ada,1\n"},
		{"wrong case", "Student_ID,name,PO1\n1,Ada,1\n"},
		{"no outcomes", "student_id,name\n1,Ada\n"},
		{"duplicate outcome", "student_id,name,PO1,PO1\n1,Ada,1,1\n"},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("a.csv", []byte(tt.data))
			verr := validationKind(t, err)
			assert.Equal(t, MalformedHeader, verr.Kind)
		})
	}
}

func TestParseRejectsPartialExemptMarking(t *testing.T) {
	data := []byte("student_id,name,PO1,PO2,PO3\n" +
		"1,Ada,1,1,0\n" +
		"2,Alan,1,U,0\n" +
		"3,Grace,U,U,U\n" +
		"4,Linus,U,0,U\n")

	_, err := Parse("a.csv", data)

	verr := validationKind(t, err)
	assert.Equal(t, InconsistentExemptMarking, verr.Kind)
	assert.Equal(t, []int{3, 5}, verr.Lines)
	assert.Equal(t, "The usage of U is wrong in lines 3, 5.", verr.Message)
}

func TestParseRejectsUnexpectedCells(t *testing.T) {
	data := []byte("student_id,name,PO1,PO2\n" +
		"1,Ada,1,1\n" +
		"2,Alan,1,\n" +
		"3,Grace,x,0\n")

	_, err := Parse("a.csv", data)

	verr := validationKind(t, err)
	assert.Equal(t, InvalidCellValue, verr.Kind)
	assert.Equal(t, "Following lines have unexpected characters: 3, 4.", verr.Message)
}

func TestParseRejectsShortRow(t *testing.T) {
	_, err := Parse("a.csv", []byte("student_id,name,PO1,PO2\n1,Ada,1\n"))

	verr := validationKind(t, err)
	assert.Equal(t, ParseFailure, verr.Kind)
	assert.Equal(t, []int{2}, verr.Lines)
}

func TestParseSkipsBlankLines(t *testing.T) {
	sheet, err := Parse("a.csv", []byte("student_id,name,PO1\n1,Ada,1\n,,\n\n"))
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 1)
}

func TestParseReportsFileLines(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		lines []int
	}{
		{"empty line", "student_id,name,PO1,PO2\n1,Ada,1,1\n\n2,Bob,1,U\n", []int{4}},
		{"blank fields line", "student_id,name,PO1,PO2\n,,,\n1,Ada,1,U\n", []int{3}},
		{"quoted line break", "student_id,name,PO1,PO2\n1,\"Ada\nLovelace\",1,1\n2,Bob,U,1\n", []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("a.csv", []byte(tt.data))

			verr := validationKind(t, err)
			assert.Equal(t, InconsistentExemptMarking, verr.Kind)
			assert.Equal(t, tt.lines, verr.Lines)
		})
	}
}

func TestParseStripsByteOrderMark(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("student_id,name,PO1\n1,Ada,1\n")...)

	sheet, err := Parse("a.csv", data)
	require.NoError(t, err)
	assert.Equal(t, UTF8, sheet.Encoding)
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Encoding
		ok   bool
	}{
		{"utf-8", []byte("Şule Iğdır"), UTF8, true},
		{"turkish code page", []byte{0xDE, 'u', 'l', 'e', ' ', 0xFD}, Windows1254, true},
		{"western code page", []byte{0x8E, 'a', 'r', 0xE9}, Windows1252, true},
		{"undefined byte", []byte{'a', 0x81}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectEncoding(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecodesWindows1254(t *testing.T) {
	data := []byte("student_id,name,PO1\n1,\xDEule,1\n")

	sheet, err := Parse("a.csv", data)
	require.NoError(t, err)
	assert.Equal(t, Windows1254, sheet.Encoding)
	assert.Equal(t, "Şule", sheet.Rows[0].Name)
}

func TestParseRejectsUndeterminedEncoding(t *testing.T) {
	_, err := Parse("a.csv", []byte("student_id,name,PO1\n1,\x81,1\n"))

	verr := validationKind(t, err)
	assert.Equal(t, EncodingUndetermined, verr.Kind)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"quoted commas ignored", "\"a,b,c\";d;e\n", ';'},
		{"tie goes to comma", "a,b;c\n", ','},
		{"header without delimiter", "a\n1;2", ';'},
		{"no delimiter", "abc", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffDelimiter(tt.text))
		})
	}
}

func TestCheckOutcomeSet(t *testing.T) {
	sheet := &Sheet{Outcomes: []string{"PO2", "PO1"}}

	assert.NoError(t, CheckOutcomeSet(sheet, "CMPE101", []string{"PO1", "PO2"}))

	err := CheckOutcomeSet(sheet, "CMPE101", []string{"PO1", "PO2", "PO3"})
	verr := validationKind(t, err)
	assert.Equal(t, OutcomeSetMismatch, verr.Kind)
	assert.Contains(t, verr.Message, "for course CMPE101")
}
