package document

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateDocument is returned when creating a document whose
	// number already has a sheet.
	ErrDuplicateDocument = errors.New("документ с таким номером уже существует")
	// ErrDocumentNotFound is returned when editing or loading a document
	// whose number has no sheet.
	ErrDocumentNotFound = errors.New("документ не найден")
)

// ValidationError reports a rejected header or item field.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// LedgerError wraps a failure in one of the best-effort ledger steps.
// The primary document is already written when it occurs, so callers
// log it and move on instead of failing the save.
type LedgerError struct {
	Op     string // ledger step, e.g. "registry", "accounting", "cost"
	Number string
	Err    error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: document №%s: %v", e.Op, e.Number, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
