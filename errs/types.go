package errs

import "fmt"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

// ValidationError is a client mistake; Field names the offending payload field when known.
type ValidationError struct {
	ErrorMessage
	Field string
}

// ConflictError means the stored document changed underneath a write.
type ConflictError struct {
	ErrorMessage
}

// StorageError wraps a backend failure. Message is safe to show, Err is the cause.
type StorageError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Message, e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewValidationError(message string) *ValidationError {
	return &ValidationError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewFieldError(field string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("Valid %s is required", field)},
		Field:        field,
	}
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewStorageError(message, operation string, err error) *StorageError {
	return &StorageError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}
