// Package errors defines the sentinel errors of the search service and the
// AppError that pairs one with an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidMethod  = errors.New("unknown method")
	ErrCorpusLoad     = errors.New("corpus load failed")
	ErrCacheDisabled  = errors.New("cache disabled")
	ErrInternal       = errors.New("internal error")
	ErrTimeout        = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func CourseNotFound(id string) *AppError {
	return Newf(ErrCourseNotFound, http.StatusNotFound, "course %q", id)
}

func InvalidInput(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

// InvalidMethod reports a similarity method or ranking strategy name that is
// not part of the closed set accepted by the engine.
func InvalidMethod(kind, name string, allowed []string) *AppError {
	return Newf(ErrInvalidMethod, http.StatusBadRequest, "%s %q (available: %v)", kind, name, allowed)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrCourseNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidMethod):
		return http.StatusBadRequest
	case errors.Is(err, ErrCacheDisabled), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
