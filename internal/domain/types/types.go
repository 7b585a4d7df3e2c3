// Package types contains common types used across the application.
package types

// Entry is a leaderboard row.
type Entry struct {
	Rank      int    `json:"rank"`
	AthleteID string `json:"athlete_id"`
	XP        int    `json:"xp"`
}
