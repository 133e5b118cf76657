package apperror

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrInternal

	// Dispatch fault domains. Each code short-circuits a different scope:
	// ErrDataUnavailable the whole run, ErrChannelConfig one channel,
	// ErrTransport one (user, channel) attempt, ErrLogWrite nothing.
	ErrDataUnavailable
	ErrChannelConfig
	ErrTransport
	ErrLogWrite
)

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// DataUnavailable marks an upstream store as unreachable for this run.
func DataUnavailable(store string, err error) *AppError {
	return &AppError{
		Code:    ErrDataUnavailable,
		Message: fmt.Sprintf("%s store unavailable", store),
		Err:     err,
	}
}

// ChannelConfig marks a channel as unusable for the whole run.
func ChannelConfig(channel string, err error) *AppError {
	return &AppError{
		Code:    ErrChannelConfig,
		Message: fmt.Sprintf("%s channel not configured", channel),
		Err:     err,
	}
}

// Transport marks one delivery call as failed.
func Transport(channel string, err error) *AppError {
	return &AppError{
		Code:    ErrTransport,
		Message: fmt.Sprintf("%s delivery failed", channel),
		Err:     err,
	}
}

// LogWrite marks a delivery log append as failed.
func LogWrite(err error) *AppError {
	return &AppError{
		Code:    ErrLogWrite,
		Message: "failed to record dispatch attempt",
		Err:     err,
	}
}

// CodeOf extracts the error code, or ErrInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

func IsDataUnavailable(err error) bool { return CodeOf(err) == ErrDataUnavailable }
func IsChannelConfig(err error) bool   { return CodeOf(err) == ErrChannelConfig }
func IsTransport(err error) bool       { return CodeOf(err) == ErrTransport }
func IsLogWrite(err error) bool        { return CodeOf(err) == ErrLogWrite }
