// internal/models/validate.go
package models

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a request or entity against its validate tags.
func Validate(v any) error {
	return validate.Struct(v)
}
