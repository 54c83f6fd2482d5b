package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Game errors
	ErrInvalidMode       ErrorCode = "INVALID_MODE"
	ErrGameNotFound      ErrorCode = "GAME_NOT_FOUND"
	ErrGameNotAccessible ErrorCode = "GAME_NOT_ACCESSIBLE"
	ErrCapacityExceeded  ErrorCode = "CAPACITY_EXCEEDED"

	// Input errors
	ErrMalformedInput ErrorCode = "MALFORMED_INPUT"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
)

// GameError is the typed failure returned by the scoreboard core. The
// Message is safe to show to the user verbatim.
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Malformed reports a caller-supplied value that could not be parsed.
func Malformed(field, value string) *GameError {
	if value == "" {
		return NewGameError(ErrMalformedInput, fmt.Sprintf("%s is required", field))
	}
	return NewGameError(ErrMalformedInput, fmt.Sprintf("%s %q is not a valid number", field, value))
}

// IsGameError checks if err, or anything it wraps, is a GameError with code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if !As(err, &gameErr) {
		return false
	}
	return gameErr.Code == code
}

// As finds the first GameError in err's chain
func As(err error, target **GameError) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}

// CodeOf returns the code of the GameError in err's chain, or
// ErrInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Code
	}
	return ErrInternalError
}
