package handler

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validationDetail maps validator errors to per-field messages suitable
// for a 400 response body.
func validationDetail(err error) any {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	errors := make(map[string]string)
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errors[field] = "field is required"
		case "email":
			errors[field] = "invalid email format"
		case "min":
			errors[field] = "must be at least " + e.Param() + " characters"
		case "max":
			errors[field] = "must be at most " + e.Param() + " characters"
		case "oneof":
			errors[field] = "must be one of: " + e.Param()
		case "hexcolor":
			errors[field] = "must be a hex color"
		default:
			errors[field] = "validation failed on " + e.Tag()
		}
	}
	return errors
}
