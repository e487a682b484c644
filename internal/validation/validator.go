// Package validation checks analysis requests before they reach the
// scoring engine.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mikey/scamguard/internal/core"
)

var (
	emailSenderPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	smsSenderPattern   = regexp.MustCompile(`^[+]?[\d\s-]{7,}$`)
)

// RequestValidator implements core.RequestValidator with validator/v10
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator with the custom tags and the
// per-type sender rule registered
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	v.RegisterStructValidation(senderFormat, core.AnalysisRequest{})

	return &RequestValidator{validate: v}
}

// Validate returns a *ValidationError when the request is not acceptable
func (v *RequestValidator) Validate(req *core.AnalysisRequest) error {
	if req == nil {
		verr := &ValidationError{Message: MessageMissingFields}
		verr.AddError("request", "request body is required")
		return verr
	}
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		return NewValidationError(errs)
	}
	return err
}

// ValidSender reports whether sender has the format required for the type
func ValidSender(t core.MessageType, sender string) bool {
	switch t {
	case core.MessageTypeEmail:
		return emailSenderPattern.MatchString(sender)
	case core.MessageTypeSMS:
		return smsSenderPattern.MatchString(sender)
	}
	return false
}

// senderFormat applies the sender rule for the request's message type. It
// stays silent when type or sender already failed field validation.
func senderFormat(sl validator.StructLevel) {
	req := sl.Current().Interface().(core.AnalysisRequest)
	if strings.TrimSpace(req.Sender) == "" {
		return
	}
	switch req.Type {
	case core.MessageTypeEmail:
		if !ValidSender(req.Type, req.Sender) {
			sl.ReportError(req.Sender, "sender", "Sender", "email_sender", "")
		}
	case core.MessageTypeSMS:
		if !ValidSender(req.Type, req.Sender) {
			sl.ReportError(req.Sender, "sender", "Sender", "sms_sender", "")
		}
	}
}
