// internal/pkg/apperr/errors.go
package apperr

import "fmt"

// ValidationError indicates invalid caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a missing record.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NotFound builds a NotFoundError for the named resource.
func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// EmptyCartError indicates an order placement attempt on a cart with no lines.
type EmptyCartError struct{}

func (e *EmptyCartError) Error() string {
	return "cart is empty"
}

// InsufficientStockError carries the offending bouquet and what was available
// when the request failed.
type InsufficientStockError struct {
	BouquetID uint
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (id=%d): requested %d, available %d",
		e.Name, e.BouquetID, e.Requested, e.Available)
}

// IllegalStateError indicates an operation not allowed in the record's
// current state, e.g. cancelling a completed order.
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string {
	return e.Message
}

// IllegalStatef builds an IllegalStateError from a format string.
func IllegalStatef(format string, args ...interface{}) *IllegalStateError {
	return &IllegalStateError{Message: fmt.Sprintf(format, args...)}
}
