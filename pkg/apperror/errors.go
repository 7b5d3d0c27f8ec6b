package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
	ErrInvalidInput = errors.New("invalid input")

	// InconsistentState means the two denormalized halves of a connection
	// edge disagree. Recoverable by read-repair; always logged.
	ErrInconsistentState = errors.New("inconsistent connection state")

	// PartialWrite means one side of a dual-row mutation failed while the
	// other succeeded. Distinct from total failure so operators can tell
	// "nothing changed" apart from "changed but needs repair".
	ErrPartialWrite = errors.New("partial write failure")
)

// Concrete conflict / absence kinds used by the connection and engagement
// services. They wrap the taxonomy sentinels so errors.Is keeps working at
// the HTTP boundary.
var (
	ErrAlreadyRequested = fmt.Errorf("%w: connection already requested", ErrConflict)
	ErrAlreadyConnected = fmt.Errorf("%w: users already connected", ErrConflict)
	ErrRequestPending   = fmt.Errorf("%w: connection request already received", ErrConflict)
	ErrAlreadyLiked     = fmt.Errorf("%w: article already liked", ErrConflict)
	ErrAlreadyFavorited = fmt.Errorf("%w: article already favorited", ErrConflict)
	ErrNotLiked         = fmt.Errorf("%w: like", ErrNotFound)
	ErrNotFavorited     = fmt.Errorf("%w: favorite", ErrNotFound)
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	// InconsistentState and PartialWrite stay server errors; they are
	// distinguishable via errors.Is and must be logged at the boundary.
	return http.StatusInternalServerError
}
