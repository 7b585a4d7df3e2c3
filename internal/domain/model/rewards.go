package model

import "time"

// Rarity grades titles and marketplace items.
type Rarity string

// Rarities, lowest first.
const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// TitleNFT is an earned title on a Sport ID profile.
type TitleNFT struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	DateEarned  time.Time `json:"date_earned"`
	Rarity      Rarity    `json:"rarity"`
	Claimed     bool      `json:"claimed"`
}

// SportProfile is an athlete's Sport ID.
type SportProfile struct {
	User             User             `json:"user"`
	TotalActivities  int              `json:"total_activities"`
	Streak           int              `json:"streak"`
	Titles           []TitleNFT       `json:"titles"`
	RecentActivities []ActivityRecord `json:"recent_activities"`
	Level            int              `json:"level"`
	XP               int              `json:"xp"`
	XPToNextLevel    int              `json:"xp_to_next_level"`
	Tokens           int              `json:"tokens"`
}

// Reward is what completing a challenge pays out.
type Reward struct {
	Tokens int    `json:"tokens"`
	XP     int    `json:"xp"`
	Badge  string `json:"badge,omitempty"`
}

// Challenge is a daily challenge.
type Challenge struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     int       `json:"duration"` // minutes
	SportType    SportType `json:"sport_type"`
	Reward       Reward    `json:"reward"`
	Participants int       `json:"participants"`
	Deadline     time.Time `json:"deadline"`
	Completed    bool      `json:"completed"`
	Joined       bool      `json:"joined"`
}

// TimeLeft returns the time until the deadline, never negative.
func (c Challenge) TimeLeft(now time.Time) time.Duration {
	if d := c.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Currency is a marketplace price unit.
type Currency string

// Currencies.
const (
	CurrencyETH    Currency = "ETH"
	CurrencyUSDC   Currency = "USDC"
	CurrencyToken  Currency = "token"
	CurrencyPoints Currency = "points"
)

// ItemType classifies marketplace items.
type ItemType string

// Item types.
const (
	ItemTitle     ItemType = "title"
	ItemBadge     ItemType = "badge"
	ItemChallenge ItemType = "challenge"
	ItemGear      ItemType = "gear"
)

// Price is an amount in a currency.
type Price struct {
	Amount   float64  `json:"amount"`
	Currency Currency `json:"currency"`
}

// Sponsor is the brand behind a sponsored item.
type Sponsor struct {
	Brand string `json:"brand"`
	Logo  string `json:"logo"`
}

// MarketplaceItem is a purchasable title, badge, challenge pack or gear.
type MarketplaceItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Price       Price    `json:"price"`
	Type        ItemType `json:"type"`
	Rarity      Rarity   `json:"rarity"`
	// SportType is a sport or "all".
	SportType string   `json:"sport_type"`
	Soulbound bool     `json:"soulbound"`
	Sponsored *Sponsor `json:"sponsored,omitempty"`
}
