package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Validator checks request DTOs and reports failures by JSON field name
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the no_xss rule registered
func NewValidator() *Validator {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func
	_ = validate.RegisterValidation("no_xss", validateNoXSS)

	return &Validator{validate: validate}
}

// Validate returns nil or a VALIDATION_FAILED AppError listing each field
func (v *Validator) Validate(s interface{}) *apperrors.AppError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError(err.Error())
	}

	fieldErrors := make([]apperrors.ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors = append(fieldErrors, apperrors.ValidationError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}

	return apperrors.NewValidationErrors(fieldErrors)
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "no_xss":
		return fmt.Sprintf("%s contains markup that is not allowed", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

var xssPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:",
	"onload=", "onerror=", "onclick=", "onmouseover=", "onfocus=",
	"document.cookie", "document.write",
}

func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, pattern := range xssPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}
