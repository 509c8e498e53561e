package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrPaymentNotCompleted   = errors.New("payment not completed")
	ErrRefundDispatchFailure = errors.New("refund dispatch failed")
	ErrOrderNotFound         = errors.New("order not found")
	ErrItemNotFound          = errors.New("order item not found")
	ErrForbidden             = errors.New("order does not belong to user")
	ErrReturnWindowExpired   = errors.New("return window expired")
	ErrInvalidItemState      = errors.New("invalid item state")
)

// ValidationError reports malformed order or item input. Nothing is mutated
// when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
