package utils

import (
	"fmt"
	"go/token"
	"unicode"
	"unicode/utf8"
)

// ValidationError describes a single field that failed validation
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Validator checks a single value
type Validator[T any] func(T) error

// ValidatorChain runs validators in order and stops at the first failure
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a chain
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add appends a validator
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs the chain
func (vc *ValidatorChain[T]) Validate(value T) error {
	for _, validator := range vc.validators {
		if err := validator(value); err != nil {
			return err
		}
	}
	return nil
}

// NotEmpty rejects the empty string
func NotEmpty(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return ValidationError{Field: field, Value: value, Message: "cannot be empty"}
		}
		return nil
	}
}

// IsValidGoIdentifier rejects anything token.IsIdentifier rejects
func IsValidGoIdentifier(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return ValidationError{Field: field, Value: value, Message: "cannot be empty"}
		}
		if !token.IsIdentifier(value) {
			return ValidationError{Field: field, Value: value, Message: "must be a valid Go identifier"}
		}
		return nil
	}
}

// IsExported requires an identifier that starts with an upper-case letter
func IsExported(field string) Validator[string] {
	return func(value string) error {
		r, _ := utf8.DecodeRuneInString(value)
		if !unicode.IsUpper(r) {
			return ValidationError{Field: field, Value: value, Message: "must be exported"}
		}
		return nil
	}
}

// IsOneOf requires value to be one of allowed
func IsOneOf[T comparable](field string, allowed ...T) Validator[T] {
	return func(value T) error {
		for _, candidate := range allowed {
			if value == candidate {
				return nil
			}
		}
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("must be one of %v", allowed),
		}
	}
}

// ValidateEach applies itemValidator to every element
func ValidateEach[T any](field string, itemValidator Validator[T]) Validator[[]T] {
	return func(values []T) error {
		for i, value := range values {
			if err := itemValidator(value); err != nil {
				return ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Value:   value,
					Message: err.Error(),
				}
			}
		}
		return nil
	}
}
