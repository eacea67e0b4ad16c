package pkgerrors

import (
	"errors"
	"fmt"
)

const (
	CodeNonExistingKey = -1001
	CodeJSONParsing    = -1002
	CodeDuplicateKey   = -1003
	CodeValidation     = -1004
	CodeBusinessRule   = -1005
	CodeTransport      = -1006
	CodeUnknown        = -9999
)

type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrDuplicateKey   = &AppError{Code: CodeDuplicateKey, Message: "duplicate key violation"}
	ErrNonExistingKey = &AppError{Code: CodeNonExistingKey, Message: "non-existing key"}
	ErrJSONParsing    = &AppError{Code: CodeJSONParsing, Message: "JSON parsing failed"}
	ErrValidation     = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrBusinessRule   = &AppError{Code: CodeBusinessRule, Message: "business rule violation"}
	ErrTransport      = &AppError{Code: CodeTransport, Message: "transport failure"}
)

func NewDuplicateKeyError(err error) *AppError {
	return &AppError{
		Code:    CodeDuplicateKey,
		Message: "duplicate key violation",
		Err:     err,
	}
}

func NewNonExistingKeyError(err error) *AppError {
	return &AppError{
		Code:    CodeNonExistingKey,
		Message: "key does not exist",
		Err:     err,
	}
}

func NewJSONParsingError(err error) *AppError {
	return &AppError{
		Code:    CodeJSONParsing,
		Message: "failed to parse message",
		Err:     err,
	}
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
	}
}

func NewBusinessRuleError(msg string) *AppError {
	return &AppError{
		Code:    CodeBusinessRule,
		Message: msg,
	}
}

func NewTransportError(err error) *AppError {
	return &AppError{
		Code:    CodeTransport,
		Message: "unable to publish event",
		Err:     err,
	}
}

func IsDuplicateKeyError(err error) bool {
	return hasCode(err, CodeDuplicateKey)
}

func IsNonExistingKeyError(err error) bool {
	return hasCode(err, CodeNonExistingKey)
}

func IsJSONParsingError(err error) bool {
	return hasCode(err, CodeJSONParsing)
}

func IsValidationError(err error) bool {
	return hasCode(err, CodeValidation)
}

func IsBusinessRuleError(err error) bool {
	return hasCode(err, CodeBusinessRule)
}

func IsTransportError(err error) bool {
	return hasCode(err, CodeTransport)
}

func GetErrorCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
