package repository

import "errors"

// Sentinel errors for store lookups and updates.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidLimit     = errors.New("invalid leaderboard limit")
	ErrInvalidXP        = errors.New("xp must be positive")
	ErrEmptyAthlete     = errors.New("athlete id is required")
	ErrAlreadyJoined    = errors.New("challenge already joined")
	ErrChallengeExpired = errors.New("challenge deadline passed")
	ErrAlreadyClaimed   = errors.New("title already claimed")
	ErrAlreadyOwned     = errors.New("soulbound item already owned")
)
