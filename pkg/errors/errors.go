package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries the HTTP status a failure should surface as, together
// with a client-facing message and an optional wrapped cause. Handlers
// attach one to the gin context; the error-response middleware turns it
// into the API's error envelope.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
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

// Common API errors.
var (
	ErrCampaignNotFound = &AppError{Code: http.StatusNotFound, Message: "Campaign not found"}
	ErrMonitorNotFound  = &AppError{Code: http.StatusNotFound, Message: "Campaign is not being monitored"}
	ErrUnauthorized     = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
)

// New creates an AppError.
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches a cause to a fresh AppError. The cause stays out of the
// client message but travels with the error for logging and errors.As.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// WithDetails returns a copy carrying extra client-facing detail.
func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Details: details, Err: e.Err}
}

// IsAppError reports whether err is, or wraps, an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetStatusCode returns the HTTP status carried by err, unwrapping as
// needed. Anything without an AppError in its chain is a 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// GetMessage returns the client-facing message for err. Non-AppError
// failures surface as a generic internal error so internals never leak.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return "Internal server error"
}
