package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTime marks malformed wall-clock input or a window whose
	// end is not after its start.
	ErrInvalidTime = errors.New("invalid time")

	// ErrInvalidConfig marks a non-positive slot duration.
	ErrInvalidConfig = errors.New("invalid slot configuration")

	// ErrSlotConflict means a confirmation lost the race for a time range.
	// The losing request stays pending and remains actionable.
	ErrSlotConflict = errors.New("time slot is no longer available")

	// ErrInvalidState marks an operation on a request outside the state
	// the operation requires.
	ErrInvalidState = errors.New("request is not in the required state")

	ErrNotFound = errors.New("not found")
)

// ValidationError is a business-rule violation detected before any write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransactionError wraps a storage failure inside an atomic operation.
// The operation had no effect and is safe to retry.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

func IsTransaction(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}
