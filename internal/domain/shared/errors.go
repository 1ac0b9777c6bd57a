package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code. It lets callers
// match wrapped domain errors against the sentinel values below with
// errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes of the business taxonomy. Infrastructure failures (lost
// connections, timeouts) are never expressed through these codes.
const (
	CodeNotFound               = "NOT_FOUND"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeLedgerInconsistency    = "LEDGER_INCONSISTENCY"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidationFailed       = NewDomainError(CodeValidationFailed, "Validation failed")
	ErrInsufficientStock      = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "Operation not allowed in current state")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrLedgerInconsistency    = NewDomainError(CodeLedgerInconsistency, "Ledger state does not match materialized balance")
)

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewValidationError creates a VALIDATION_FAILED error with a reason
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidationFailed, message)
}

// NewInsufficientStockError creates an INSUFFICIENT_STOCK error describing
// the shortfall for an item
func NewInsufficientStockError(item string, available, requested string) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: available %s, requested %s", item, available, requested))
}

// NewInvalidStateTransitionError creates an INVALID_STATE_TRANSITION error
// for a rejected status change
func NewInvalidStateTransitionError(entity, from, to string) *DomainError {
	return NewDomainError(CodeInvalidStateTransition,
		fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to))
}

// NewConcurrencyConflictError creates a CONCURRENCY_CONFLICT error for a
// lost compare-and-set race
func NewConcurrencyConflictError(entity string) *DomainError {
	return NewDomainError(CodeConcurrencyConflict,
		fmt.Sprintf("%s was modified concurrently, retry the operation", entity))
}

// NewLedgerInconsistencyError creates a LEDGER_INCONSISTENCY error. This
// signals corrupted bookkeeping and must surface to an operator rather
// than be repaired silently.
func NewLedgerInconsistencyError(detail string) *DomainError {
	return NewDomainError(CodeLedgerInconsistency, detail)
}
