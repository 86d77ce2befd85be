package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/validation"
)

// RegisterValidators adds the domain rules to gin's validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return validation.RegisterRules(v)
}

// BindJSON binds and validates the request body into obj. On failure it
// writes a 400 response and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	return bindWith(c, obj, c.ShouldBindJSON)
}

// BindQuery binds and validates query parameters into obj
func BindQuery(c *gin.Context, obj interface{}) bool {
	return bindWith(c, obj, c.ShouldBindQuery)
}

// BindForm binds and validates form fields, multipart bodies included
func BindForm(c *gin.Context, obj interface{}) bool {
	return bindWith(c, obj, c.ShouldBind)
}

func bindWith(c *gin.Context, obj interface{}, bind func(interface{}) error) bool {
	err := bind(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, e := range verrs {
			fields[e.Field()] = formatValidationError(e)
		}
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request data")
		errorDetail = errorDetail.WithDetails(fields)
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}

	errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid request format")
	errorDetail = errorDetail.WithDetails(err.Error())
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
	return false
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "studentno":
		return e.Field() + " must be a student number"
	case "coursecode":
		return e.Field() + " must be a course code such as CMPE101"
	case "outcomecode":
		return e.Field() + " must be a program outcome code such as PO1"
	case "yearinterval":
		return e.Field() + " must look like 2020-2021"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
