package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/novafs/lms-api/utils/apperr"
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance. Field names in messages
// follow the json tag so they match what the client sent.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		validate: v,
	}
}

// Validate checks s and returns a validation *apperr.Error listing every
// failed field, or nil.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperr.Internal("validate request", err)
	}

	return apperr.Validation("Error validation", FormatValidationErrors(validationErrs)...)
}

// FormatValidationErrors converts validation errors to user-facing messages,
// one per failed field, in declaration order
func FormatValidationErrors(err error) []string {
	var messages []string

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return messages
	}

	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required", "required_if":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, "Invalid email format")
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", ")))
		case "gt", "gte":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}

	return messages
}
