package entity

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the fields that failed struct validation
type ValidationError struct {
	Fields []string
	cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %v: %v", e.Fields, e.cause)
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace())
	}
	return &ValidationError{Fields: fields, cause: err}
}
