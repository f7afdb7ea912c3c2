package validator

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct's `validate` tags and returns the offending
// fields mapped to the failed rule, or nil when everything passes. Services
// run it on domain values right before persisting them, as a second line
// behind the HTTP binding checks.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
