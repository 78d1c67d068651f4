package errors

import "fmt"

// ValidationError represents a validation error with detailed context
type ValidationError struct {
	*BaseError
	Field    string // field that failed validation
	Expected string // what was expected
	Actual   string // what was provided
}

// NewValidationError creates a new validation error
func NewValidationError(field, expected, actual string) *ValidationError {
	message := fmt.Sprintf("validation failed for field '%s': expected %s, got %s", field, expected, actual)

	return &ValidationError{
		BaseError: New(ValidationErrorCode, message),
		Field:     field,
		Expected:  expected,
		Actual:    actual,
	}
}

// SyntaxError represents a syntax parsing error
type SyntaxError struct {
	*BaseError
	Input string // the text that failed to parse
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		BaseError: New(SyntaxErrorCode, message),
	}
}

// WrapParseError wraps an error with a "failed to parse" message
func WrapParseError(item, input string, cause error) *SyntaxError {
	return &SyntaxError{
		BaseError: Wrap(SyntaxErrorCode, fmt.Sprintf("failed to parse %s %q", item, input), cause),
		Input:     input,
	}
}

// RegistrationError represents a duplicate or invalid registration
type RegistrationError struct {
	*BaseError
	ComponentType string
	Name          string
}

// NewRegistrationError creates a registration error
func NewRegistrationError(componentType, name, reason string) *RegistrationError {
	message := fmt.Sprintf("failed to register %s '%s': %s", componentType, name, reason)
	return &RegistrationError{
		BaseError:     New(RegistrationErrorCode, message),
		ComponentType: componentType,
		Name:          name,
	}
}

// WrapWithOperation wraps an error with an operation context
func WrapWithOperation(operation, item string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s %s", operation, item)
	return Wrap(UnknownErrorCode, message, cause)
}

// WrapGenerateError wraps an error with a "failed to generate" message
func WrapGenerateError(item string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s", item), cause).
		WithContext("target", item)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configType, message string) *BaseError {
	fullMessage := fmt.Sprintf("configuration error in '%s': %s", configType, message)
	return New(ConfigurationErrorCode, fullMessage).
		WithContext("config_type", configType)
}

// AddToMultiple adds an error to a MultipleErrors, creating it if nil
func AddToMultiple(multiple **MultipleErrors, err WeaveError) {
	if *multiple == nil {
		*multiple = NewMultipleErrors()
	}
	(*multiple).Add(err)
}

// AddValidationError adds a validation error to a collection
func AddValidationError(multiple **MultipleErrors, field, expected, actual string) {
	AddToMultiple(multiple, NewValidationError(field, expected, actual))
}
