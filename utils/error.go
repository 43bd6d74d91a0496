package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidationError names the offending field so handlers can surface it in
// the 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// OverLimitError carries the computed limit back to the client so it can
// self-correct (e.g. retry with the remaining balance).
type OverLimitError struct {
	Message string
	Limit   decimal.Decimal
}

func (e *OverLimitError) Error() string {
	return fmt.Sprintf("%s (limit %s)", e.Message, e.Limit.StringFixed(2))
}

func NewOverLimitError(message string, limit decimal.Decimal) *OverLimitError {
	return &OverLimitError{Message: message, Limit: limit}
}

// InvalidTransitionError rejects an illegal state change (cleared cheque
// bounced, finished goods posted twice, ...).
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// PersistenceError wraps an unexpected storage failure. The core never
// retries these; the caller decides.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}
