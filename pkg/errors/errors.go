package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Codes are part of the API: clients branch on them, so they never change.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidRange         = "INVALID_TIME_RANGE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeBadRequest           = "BAD_REQUEST"
	CodeTimeout              = "TIMEOUT"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeTooManyRequests      = "TOO_MANY_REQUESTS"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	err := New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
	err.Details = map[string]any{"resource": resource, "id": id}
	return err
}

func Validation(message string, details map[string]any) *AppError {
	err := New(CodeValidation, message, http.StatusUnprocessableEntity)
	err.Details = details
	return err
}

// InvalidRange reports a time range whose start is not strictly before its end.
func InvalidRange(start, end string) *AppError {
	err := New(CodeInvalidRange, "start_time must be before end_time", http.StatusUnprocessableEntity)
	err.Details = map[string]any{"start_time": start, "end_time": end}
	return err
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequests, message, http.StatusTooManyRequests)
}

func UnsupportedMediaType(want string) *AppError {
	return New(CodeUnsupportedMediaType, "Content-Type must be "+want, http.StatusUnsupportedMediaType)
}

func PayloadTooLarge(limit int64) *AppError {
	err := New(CodePayloadTooLarge, "Request body too large", http.StatusRequestEntityTooLarge)
	err.Details = map[string]any{"max_bytes": limit}
	return err
}

func Internal(message string, err error) *AppError {
	appErr := New(CodeInternal, message, http.StatusInternalServerError)
	appErr.Err = err
	return appErr
}

// Timeout is returned when a booking slot stays locked past the wait budget
// and when a request outlives its deadline.
func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
