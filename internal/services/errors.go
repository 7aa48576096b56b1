package services

import (
	"errors"
	"fmt"
)

// Service-level sentinels. Handlers map these onto HTTP statuses.
var (
	ErrValidation           = errors.New("validation error")
	ErrProductNotFound      = errors.New("product not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
	ErrTotalMismatch        = errors.New("total amount does not match line items")
)

// ValidationError names the field that failed. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func missingField(field string) error {
	return &ValidationError{Field: field, Message: "Missing field: " + field}
}

func invalidField(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports the first product that could not cover a sale.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (ID: %d). Requested: %d, Available: %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
