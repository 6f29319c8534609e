// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrNoSolution signals that an implied-volatility solver could not
	// recover a volatility: non-convergence, vega underflow, or a market
	// price outside the no-arbitrage bounds. Callers decide whether a
	// missing implied volatility is acceptable.
	ErrNoSolution = errors.New("no solution")

	ErrInsufficientData = errors.New("insufficient price history")
	ErrUnknownStrategy  = errors.New("unknown strategy type")
	ErrDataNotFound     = errors.New("data not found")
	ErrRunNotFound      = errors.New("run not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
)

// ValidationError represents an input validation error. Validation errors
// are reported before any computation starts.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents an upstream data availability error.
type DataError struct {
	Ticker  string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Ticker, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Ticker, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(ticker, message string, err error) *DataError {
	return &DataError{
		Ticker:  ticker,
		Message: message,
		Err:     err,
	}
}

// RunError represents a failure while executing a backtest run.
type RunError struct {
	Kind    string
	Stage   string
	Message string
	Err     error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run error [%s/%s]: %s: %v", e.Kind, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("run error [%s/%s]: %s", e.Kind, e.Stage, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError.
func NewRunError(kind, stage, message string, err error) *RunError {
	return &RunError{
		Kind:    kind,
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
