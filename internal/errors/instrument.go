package errors

import (
	stderrors "errors"
	"fmt"
)

// NotFoundError signals that a target type or method could not be located.
// It is recoverable: callers log it and continue with the next operation.
type NotFoundError struct {
	*BaseError
	TypeName  string
	Method    string
	Signature string
}

// NewTypeNotFoundError reports a missing target type
func NewTypeNotFoundError(typeName string) *NotFoundError {
	err := &NotFoundError{
		BaseError: New(NotFoundErrorCode, fmt.Sprintf("type '%s' not found", typeName)),
		TypeName:  typeName,
	}
	err.WithContext("type", typeName)
	return err
}

// NewMethodNotFoundError reports a method signature with no declared match
func NewMethodNotFoundError(typeName, signature string) *NotFoundError {
	err := &NotFoundError{
		BaseError: New(NotFoundErrorCode, fmt.Sprintf("method %s not found on '%s'", signature, typeName)),
		TypeName:  typeName,
		Signature: signature,
	}
	err.WithContext("type", typeName).WithContext("signature", signature)
	return err
}

// StructuralError is fatal to the transformation of one type
type StructuralError struct {
	*BaseError
	TypeName string
	Stage    string // operation that detected the inconsistency
}

// NewStructuralError creates a structural error for the given stage
func NewStructuralError(typeName, stage, message string) *StructuralError {
	err := &StructuralError{
		BaseError: New(StructuralErrorCode, fmt.Sprintf("%s: %s: %s", typeName, stage, message)),
		TypeName:  typeName,
		Stage:     stage,
	}
	err.WithContext("type", typeName).WithContext("stage", stage)
	return err
}

// WrapStructuralError wraps a lower level failure as structural
func WrapStructuralError(typeName, stage string, cause error) *StructuralError {
	err := &StructuralError{
		BaseError: Wrap(StructuralErrorCode, fmt.Sprintf("%s: %s failed", typeName, stage), cause),
		TypeName:  typeName,
		Stage:     stage,
	}
	err.WithContext("type", typeName).WithContext("stage", stage)
	return err
}

// CompatibilityError reports a target library that fails its version check
type CompatibilityError struct {
	*BaseError
	Module     string
	Version    string
	Constraint string
}

// NewCompatibilityError creates a compatibility error
func NewCompatibilityError(module, version, constraint string) *CompatibilityError {
	message := fmt.Sprintf("module %s@%s does not satisfy %s", module, version, constraint)
	if version == "" {
		message = fmt.Sprintf("module %s is not required by the target module", module)
	}
	return &CompatibilityError{
		BaseError:  New(CompatibilityErrorCode, message),
		Module:     module,
		Version:    version,
		Constraint: constraint,
	}
}

// IsNotFound reports whether err is a recoverable not-found signal
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// IsStructural reports whether err must abort the whole type transformation
func IsStructural(err error) bool {
	var se *StructuralError
	return stderrors.As(err, &se)
}

// IsCompatibility reports whether err came from a library version check
func IsCompatibility(err error) bool {
	var ce *CompatibilityError
	return stderrors.As(err, &ce)
}
