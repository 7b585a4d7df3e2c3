package model

import "time"

// User is an athlete account.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

// PostActivity is the activity summary attached to a feed post.
type PostActivity struct {
	Type               SportType          `json:"type"`
	Duration           *float64           `json:"duration,omitempty"`
	Distance           *float64           `json:"distance,omitempty"`
	Calories           *int               `json:"calories,omitempty"`
	Verified           bool               `json:"verified"`
	VerificationSource VerificationSource `json:"verification_source,omitempty"`
}

// Post is a social feed entry.
type Post struct {
	ID           string        `json:"id"`
	User         User          `json:"user"`
	Content      string        `json:"content"`
	Images       []string      `json:"images,omitempty"`
	Video        string        `json:"video,omitempty"`
	ActivityData *PostActivity `json:"activity_data,omitempty"`
	Likes        int           `json:"likes"`
	Comments     int           `json:"comments"`
	Timestamp    time.Time     `json:"timestamp"`
	Verified     bool          `json:"verified"`
}

// Sport returns the attached activity sport, or "" when the post has none.
func (p Post) Sport() SportType {
	if p.ActivityData == nil {
		return ""
	}
	return p.ActivityData.Type
}
