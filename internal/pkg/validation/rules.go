package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Student number: digits only, institution numbers are 8 to 11 long
	StudentNoPattern = `^\d{8,11}$`

	// Course codes such as CE101, MATH 152, SE-302
	CourseCodePattern = `^[A-Za-z]{2,5}[ -]?\d{3,4}[A-Za-z]?$`

	// Program outcome codes such as PO1, PÇ12, PC3.1
	OutcomeCodePattern = `^\p{L}{1,4}\d{1,2}(\.\d{1,2})?$`

	// Academic year interval, 2020-2021
	YearIntervalPattern = `^(\d{4})-(\d{4})$`

	// Name validation min/max length
	NameMinLength = 2
	NameMaxLength = 200
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	StudentNo    *regexp.Regexp
	CourseCode   *regexp.Regexp
	OutcomeCode  *regexp.Regexp
	YearInterval *regexp.Regexp
}{
	StudentNo:    regexp.MustCompile(StudentNoPattern),
	CourseCode:   regexp.MustCompile(CourseCodePattern),
	OutcomeCode:  regexp.MustCompile(OutcomeCodePattern),
	YearInterval: regexp.MustCompile(YearIntervalPattern),
}

// StringValidation checks one string value against a set of rules
type StringValidation struct {
	Field    string
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(field, value string) *StringValidation {
	return &StringValidation{
		Field:    field,
		Value:    strings.TrimSpace(value),
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate returns nil when the value satisfies every rule
func (v *StringValidation) Validate() error {
	if v.Value == "" {
		if v.Required {
			return fmt.Errorf("%s is required", v.Field)
		}
		return nil
	}

	n := utf8.RuneCountInString(v.Value)
	if v.MinLen > 0 && n < v.MinLen {
		return fmt.Errorf("%s must be at least %d characters", v.Field, v.MinLen)
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return fmt.Errorf("%s must be at most %d characters", v.Field, v.MaxLen)
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return fmt.Errorf("%s has an invalid format: %q", v.Field, v.Value)
	}
	return nil
}

// ValidYearInterval reports whether s is two consecutive years, "2020-2021"
func ValidYearInterval(s string) bool {
	m := CompiledPatterns.YearInterval.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	return second == first+1
}

// RegisterRules adds the domain tags (studentno, coursecode, outcomecode,
// yearinterval) to a validator instance
func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"studentno":    patternRule(CompiledPatterns.StudentNo),
		"coursecode":   patternRule(CompiledPatterns.CourseCode),
		"outcomecode":  patternRule(CompiledPatterns.OutcomeCode),
		"yearinterval": func(fl validator.FieldLevel) bool { return ValidYearInterval(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	return nil
}

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(strings.TrimSpace(fl.Field().String()))
	}
}
