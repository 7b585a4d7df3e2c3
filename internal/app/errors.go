package service

import (
	"errors"

	"github.com/okian/sportid/internal/adapters/mq/queue"
)

// Sentinel errors returned by Service methods. Store and wallet errors
// (repository.ErrNotFound, wallet.ErrNotConnected, ...) pass through.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidSport      = errors.New("invalid sport type")
	ErrBackpressure      = queue.ErrBackpressure
)
