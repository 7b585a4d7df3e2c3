package api

import (
	"errors"
	"net/http"

	"github.com/okian/sportid/internal/adapters/repository"
	service "github.com/okian/sportid/internal/app"
	"github.com/okian/sportid/internal/domain/wallet"
)

// Sentinel kinds for API errors.
var (
	ErrServe        = errors.New("serve failed")
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")
)

// Error ties an operation name and an API kind to an underlying error.
// errors.Is matches both Kind and Err.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes Kind and Err to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an Error of kind with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns an Error of kind caused by err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap returns an Error for err, classifying its kind from known upstream errors.
func Wrap(op string, err error) error {
	_, _, kind := classify(err)
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error to an HTTP status, a response code and an API kind.
func classify(err error) (status int, code string, kind error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrInvalidSport),
		errors.Is(err, wallet.ErrInvalidAddress),
		errors.Is(err, wallet.ErrEmptyAthlete),
		errors.Is(err, repository.ErrEmptyAthlete),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request", ErrBadRequest
	case errors.Is(err, ErrForbidden), errors.Is(err, wallet.ErrNotConnected):
		return http.StatusForbidden, "wallet_not_connected", ErrForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found", ErrNotFound
	case errors.Is(err, repository.ErrChallengeExpired):
		return http.StatusConflict, "challenge_expired", ErrConflict
	case errors.Is(err, ErrConflict),
		errors.Is(err, repository.ErrAlreadyJoined),
		errors.Is(err, repository.ErrAlreadyClaimed),
		errors.Is(err, repository.ErrAlreadyOwned):
		return http.StatusConflict, "conflict", ErrConflict
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure", ErrBackpressure
	case errors.Is(err, ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable", ErrUnavailable
	default:
		return http.StatusInternalServerError, "internal_error", ErrServe
	}
}
