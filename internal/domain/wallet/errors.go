package wallet

import "errors"

// Sentinel errors for wallet operations.
var (
	ErrNotConnected   = errors.New("wallet not connected")
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrEmptyAthlete   = errors.New("athlete id is required")
)
