package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps json field names to a readable failure
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error lists the failures sorted by field
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v.Errors[f])
	}
	return strings.Join(parts, "; ")
}

// NewValidationError creates a ValidationError from validator failures
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	v := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		v.Errors[fe.Field()] = describe(fe)
	}
	return v
}

// HasErrors reports whether any field failed
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// GetFieldError returns the failure for one field
func (v *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := v.Errors[field]
	return msg, ok
}

// Messages per tag. %[1]s is the field, %[2]s the tag parameter.
var tagMessages = map[string]string{
	"required":       "%[1]s is required",
	"gt":             "%[1]s must be greater than %[2]s",
	"gte":            "%[1]s must be at least %[2]s",
	"max":            "%[1]s must be at most %[2]s characters long",
	"oneof":          "%[1]s must be one of: %[2]s",
	"url":            "%[1]s must be a valid URL",
	"uuid":           "%[1]s must be a valid UUID",
	"gift_card_code": "%[1]s must look like GC-XXXX-XXXX-XXXX",
	"gift_card_type": "%[1]s must be digital or physical",
	"proof_status":   "%[1]s must be pending, approved or revision_requested",
	"currency_code":  "%[1]s must be a 3-letter ISO currency code",
}

func describe(fe validator.FieldError) string {
	if tmpl, ok := tagMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}
