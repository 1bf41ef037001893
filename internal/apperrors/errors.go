package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller lacks permission for the operation.
var ErrForbidden = errors.New("operation not permitted")

// ErrConflict indicates that the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("operation conflicts with resource state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Ledger-specific errors. These are returned by the posting and
// reconciliation services and leave ledger state unchanged.
var (
	// ErrCurrencyMismatch indicates an operation mixed values of different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrTenantMismatch indicates a referenced resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("resource does not belong to tenant")

	// ErrUnbalancedEntry indicates the debit and credit postings of an entry do not sum equal.
	ErrUnbalancedEntry = errors.New("entry debits and credits do not balance")

	// ErrPeriodClosed indicates the target accounting period no longer accepts postings.
	ErrPeriodClosed = errors.New("accounting period is closed")

	// ErrInvalidAmount indicates a posting amount is zero, negative, or has invalid precision.
	ErrInvalidAmount = errors.New("posting amount is invalid")

	// ErrConcurrentModification indicates state changed between validation and commit.
	ErrConcurrentModification = errors.New("resource was modified concurrently")

	// ErrMissingTenantContext indicates an operation was attempted without a tenant identifier.
	ErrMissingTenantContext = errors.New("tenant context is required")

	// ErrLedgerIntegrityViolation indicates the global double-entry invariant is broken
	// for a tenant's ledger. This is fatal for that ledger and requires manual audit.
	ErrLedgerIntegrityViolation = errors.New("ledger integrity violation")
)

// AppError wraps an underlying error with a status code and message for the
// handler layer. Services return sentinel errors; repositories may wrap
// driver errors in an AppError to preserve context.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
