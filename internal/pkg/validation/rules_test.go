package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringValidation(t *testing.T) {
	assert.NoError(t, NewStringValidation("student_id", "44629785700").WithPattern(CompiledPatterns.StudentNo).Validate())
	assert.Error(t, NewStringValidation("student_id", "4462A").WithPattern(CompiledPatterns.StudentNo).Validate())
	assert.Error(t, NewStringValidation("name", " ").Validate())
	assert.NoError(t, NewStringValidation("name", "").WithRequired(false).Validate())
	assert.Error(t, NewStringValidation("name", "A").WithMinLength(NameMinLength).Validate())
	assert.NoError(t, NewStringValidation("name", "Şu").WithMinLength(NameMinLength).WithMaxLength(2).Validate())
}

func TestCodePatterns(t *testing.T) {
	for _, code := range []string{"CE101", "MATH 152", "SE-302", "CE491A"} {
		assert.True(t, CompiledPatterns.CourseCode.MatchString(code), code)
	}
	assert.False(t, CompiledPatterns.CourseCode.MatchString("101"))

	for _, code := range []string{"PO1", "PÇ12", "PC3.1"} {
		assert.True(t, CompiledPatterns.OutcomeCode.MatchString(code), code)
	}
	assert.False(t, CompiledPatterns.OutcomeCode.MatchString("student_id"))
}

func TestValidYearInterval(t *testing.T) {
	assert.True(t, ValidYearInterval("2020-2021"))
	assert.False(t, ValidYearInterval("2020-2022"))
	assert.False(t, ValidYearInterval("2020/2021"))
}

func TestRegisterRules(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterRules(v))

	type semester struct {
		YearInterval string `validate:"required,yearinterval"`
		Course       string `validate:"coursecode"`
	}
	assert.NoError(t, v.Struct(semester{YearInterval: "2021-2022", Course: "CE101"}))
	assert.Error(t, v.Struct(semester{YearInterval: "2021", Course: "CE101"}))
	assert.Error(t, v.Struct(semester{YearInterval: "2021-2022", Course: "??"}))
}
