package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mikey/scamguard/internal/core"
)

// Top level messages, one per failure class
const (
	MessageMissingFields = "Missing required fields"
	MessageInvalidEmail  = "Invalid email format"
	MessageInvalidPhone  = "Invalid phone number format"
	MessageInvalid       = "Validation failed"
)

// ValidationError represents a validation error with field-level details
type ValidationError struct {
	Message string            `json:"error"`
	Errors  map[string]string `json:"fields"`
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, fmt.Sprintf("%s: %s", field, v.Errors[field]))
	}
	if len(messages) == 0 {
		return v.Message
	}
	return v.Message + " (" + strings.Join(messages, "; ") + ")"
}

// Unwrap lets callers match validation failures with errors.Is
func (v *ValidationError) Unwrap() error {
	return core.ErrValidation
}

// NewValidationError creates a new ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	verr := &ValidationError{Errors: make(map[string]string, len(errs))}

	missing := false
	for _, err := range errs {
		verr.Errors[err.Field()] = getErrorMessage(err)
		if err.Tag() == "required" || err.Tag() == "notblank" {
			missing = true
		}
	}

	switch {
	case missing:
		verr.Message = MessageMissingFields
	case len(errs) == 1 && errs[0].Tag() == "email_sender":
		verr.Message = MessageInvalidEmail
	case len(errs) == 1 && errs[0].Tag() == "sms_sender":
		verr.Message = MessageInvalidPhone
	default:
		verr.Message = MessageInvalid
	}
	return verr
}

// getErrorMessage returns a human-readable error message for a validation error
func getErrorMessage(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, err.Param())
	case "email_sender":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "sms_sender":
		return fmt.Sprintf("%s must be a phone number of at least 7 digits", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// AddError adds a custom error message for a field
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// HasErrors returns true if there are any validation errors
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}
