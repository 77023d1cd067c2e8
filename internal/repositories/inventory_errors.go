package repositories

import "fmt"

// InventoryErrorCode enumerates repository error causes for inventory operations.
type InventoryErrorCode string

const (
	// InventoryErrorUnknown represents an unspecified failure.
	InventoryErrorUnknown InventoryErrorCode = "inventory_unknown"
	// InventoryErrorInsufficientStock indicates requested quantity exceeds availability.
	InventoryErrorInsufficientStock InventoryErrorCode = "insufficient_stock"
	// InventoryErrorNotFound indicates the inventory unit has no stock record.
	InventoryErrorNotFound InventoryErrorCode = "inventory_not_found"
	// InventoryErrorHoldNotFound indicates no stock hold exists for the order.
	InventoryErrorHoldNotFound InventoryErrorCode = "inventory_hold_not_found"
	// InventoryErrorInvalidHoldState indicates the hold status forbids the operation.
	InventoryErrorInvalidHoldState InventoryErrorCode = "inventory_invalid_hold_state"
)

// InventoryError wraps inventory-specific failures with machine readable codes.
// It satisfies RepositoryError so services can translate it uniformly.
type InventoryError struct {
	Op      string
	Code    InventoryErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *InventoryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *InventoryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether the stock record or hold is missing.
func (e *InventoryError) IsNotFound() bool {
	return e != nil && (e.Code == InventoryErrorNotFound || e.Code == InventoryErrorHoldNotFound)
}

// IsConflict reports whether the failure is a stock or hold-state conflict.
func (e *InventoryError) IsConflict() bool {
	return e != nil && (e.Code == InventoryErrorInsufficientStock || e.Code == InventoryErrorInvalidHoldState)
}

// IsUnavailable always reports false; transport failures are wrapped elsewhere.
func (e *InventoryError) IsUnavailable() bool {
	return false
}

// NewInventoryError constructs a typed inventory error.
func NewInventoryError(code InventoryErrorCode, message string, err error) *InventoryError {
	if message == "" {
		message = string(code)
	}
	return &InventoryError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
