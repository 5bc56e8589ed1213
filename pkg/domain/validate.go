package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct's validate tags and reports the first set of
// violations in a single error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, fe := range errs {
		if fe.Tag() == "required" {
			return fmt.Errorf("field %s is required", fe.Field())
		}
		return fmt.Errorf("field %s is invalid (%s)", fe.Field(), fe.Tag())
	}
	return err
}
