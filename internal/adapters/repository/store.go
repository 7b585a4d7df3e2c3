// Package repository holds the in-memory stores behind the rewards service:
// the XP leaderboard, the social feed and the catalog of challenges,
// marketplace items and profiles.
package repository

import (
	"context"
	"math"

	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/internal/domain/types"
)

// Entry is a leaderboard row.
type Entry = types.Entry

// Leaderboard ranks athletes by accumulated XP.
type Leaderboard interface {
	// AddXP adds xp to the athlete's total, creating the athlete on first use,
	// and returns the updated row.
	AddXP(ctx context.Context, athleteID string, xp int) (Entry, error)

	// Rank returns the athlete's rank and XP.
	// Returns ErrNotFound if the athlete is unknown.
	Rank(ctx context.Context, athleteID string) (Entry, error)

	// TopN returns the top-N entries ordered by XP desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of athletes on the leaderboard.
	Count(ctx context.Context) int
}

// Feed stores social posts newest first.
type Feed interface {
	Publish(ctx context.Context, post model.Post) model.Post
	List(ctx context.Context, sport string) []model.Post
	Like(ctx context.Context, postID string) (model.Post, error)
	Count(ctx context.Context) int
}

// MarketFilter narrows marketplace listings. Empty or "all" matches everything.
type MarketFilter struct {
	Sport  string
	Type   string
	Rarity string
}

// Catalog stores challenges, marketplace items and athlete profiles.
type Catalog interface {
	Challenges(ctx context.Context, athleteID string) []model.Challenge
	JoinChallenge(ctx context.Context, athleteID, challengeID string) (model.Challenge, error)
	CompleteChallenges(ctx context.Context, athleteID string, sport model.SportType, minutes int) []model.Challenge
	ReopenChallenges(ctx context.Context, athleteID string, challengeIDs []string)

	Items(ctx context.Context, filter MarketFilter) []model.MarketplaceItem
	Item(ctx context.Context, itemID string) (model.MarketplaceItem, error)
	Purchase(ctx context.Context, athleteID, itemID string) (model.MarketplaceItem, error)

	Profile(ctx context.Context, athleteID string) (model.SportProfile, error)
	Profiles(ctx context.Context) []model.SportProfile
	RecordActivity(ctx context.Context, athleteID string, activity model.ActivityRecord, xp, tokens int) (model.SportProfile, error)
	ClaimTitle(ctx context.Context, athleteID, titleID string) (model.TitleNFT, error)
}

// addCapped adds two non-negative amounts, saturating at math.MaxInt.
func addCapped(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
