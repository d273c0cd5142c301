package booking

import (
	"errors"
	"fmt"
)

// Error codes classifying every failure the engine can surface.
const (
	CodeValidation  = "validation"
	CodeConfig      = "config"
	CodePersistence = "persistence"
)

// EngineError carries a taxonomy code, a user-safe message and the wrapped cause.
type EngineError struct {
	Code    string
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) error {
	return &EngineError{Code: CodeValidation, Message: msg}
}

func NewConfigError(msg string, err error) error {
	return &EngineError{Code: CodeConfig, Message: msg, Err: err}
}

func NewPersistenceError(err error) error {
	return &EngineError{Code: CodePersistence, Message: "please try again", Err: err}
}

// ErrCode extracts the taxonomy code, or "" for untyped errors.
func ErrCode(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func IsValidationError(err error) bool { return ErrCode(err) == CodeValidation }
func IsConfigError(err error) bool     { return ErrCode(err) == CodeConfig }
