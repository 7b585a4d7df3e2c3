package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/sportid/internal/domain/model"
)

const defaultRecentActivities = 10

// CatalogStore holds challenges, marketplace items and athlete profiles.
type CatalogStore struct {
	mu sync.RWMutex

	challenges []model.Challenge
	joined     map[string]map[string]bool // challenge -> athlete
	completed  map[string]map[string]bool // challenge -> athlete

	items []model.MarketplaceItem
	owned map[string]map[string]bool // athlete -> item

	profiles   map[string]*model.SportProfile
	lastActive map[string]time.Time

	now         func() time.Time
	level       func(xp int) (int, int)
	recentLimit int
}

// NewCatalogStore creates an empty catalog.
func NewCatalogStore(opts ...CatalogOption) *CatalogStore {
	c := &CatalogStore{
		joined:      make(map[string]map[string]bool),
		completed:   make(map[string]map[string]bool),
		owned:       make(map[string]map[string]bool),
		profiles:    make(map[string]*model.SportProfile),
		lastActive:  make(map[string]time.Time),
		now:         time.Now,
		recentLimit: defaultRecentActivities,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed loads fixtures, replacing any challenge, item or profile with the same ID.
func (c *CatalogStore) Seed(ctx context.Context, f Fixtures) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range f.Challenges {
		c.upsertChallenge(ch)
	}
	for challengeID, athletes := range f.Joined {
		for _, a := range athletes {
			mark(c.joined, challengeID, a)
		}
	}
	for _, it := range f.Items {
		c.upsertItem(it)
	}
	for _, p := range f.Profiles {
		p := cloneProfile(p)
		if c.level != nil {
			p.Level, p.XPToNextLevel = c.level(p.XP)
		}
		c.profiles[p.User.ID] = &p
		if len(p.RecentActivities) > 0 {
			c.lastActive[p.User.ID] = p.RecentActivities[0].Date
		}
	}
}

func (c *CatalogStore) upsertChallenge(ch model.Challenge) {
	ch.Joined, ch.Completed = false, false
	for i := range c.challenges {
		if c.challenges[i].ID == ch.ID {
			c.challenges[i] = ch
			return
		}
	}
	c.challenges = append(c.challenges, ch)
}

func (c *CatalogStore) upsertItem(it model.MarketplaceItem) {
	for i := range c.items {
		if c.items[i].ID == it.ID {
			c.items[i] = it
			return
		}
	}
	c.items = append(c.items, it)
}

func mark(m map[string]map[string]bool, outer, inner string) {
	if m[outer] == nil {
		m[outer] = make(map[string]bool)
	}
	m[outer][inner] = true
}

// Challenges lists challenges with Joined and Completed set for athleteID.
func (c *CatalogStore) Challenges(ctx context.Context, athleteID string) []model.Challenge {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Challenge, len(c.challenges))
	for i, ch := range c.challenges {
		out[i] = c.viewChallenge(ch, athleteID)
	}
	return out
}

func (c *CatalogStore) viewChallenge(ch model.Challenge, athleteID string) model.Challenge {
	ch.Joined = c.joined[ch.ID][athleteID]
	ch.Completed = c.completed[ch.ID][athleteID]
	return ch
}

// JoinChallenge signs athleteID up for a challenge that has not expired.
func (c *CatalogStore) JoinChallenge(ctx context.Context, athleteID, challengeID string) (model.Challenge, error) {
	if strings.TrimSpace(athleteID) == "" {
		return model.Challenge{}, ErrEmptyAthlete
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.challenges {
		ch := &c.challenges[i]
		if ch.ID != challengeID {
			continue
		}
		if ch.TimeLeft(c.now()) == 0 {
			return model.Challenge{}, ErrChallengeExpired
		}
		if c.joined[ch.ID][athleteID] {
			return model.Challenge{}, ErrAlreadyJoined
		}
		mark(c.joined, ch.ID, athleteID)
		ch.Participants++
		return c.viewChallenge(*ch, athleteID), nil
	}
	return model.Challenge{}, ErrNotFound
}

// CompleteChallenges marks every joined, open challenge for sport whose
// duration is met by minutes as completed, and returns them.
func (c *CatalogStore) CompleteChallenges(ctx context.Context, athleteID string, sport model.SportType, minutes int) []model.Challenge {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var done []model.Challenge
	for _, ch := range c.challenges {
		if ch.SportType != sport || minutes < ch.Duration || ch.TimeLeft(now) == 0 {
			continue
		}
		if !c.joined[ch.ID][athleteID] || c.completed[ch.ID][athleteID] {
			continue
		}
		mark(c.completed, ch.ID, athleteID)
		done = append(done, c.viewChallenge(ch, athleteID))
	}
	return done
}

// ReopenChallenges clears the athlete's completion of challengeIDs so a
// retried activity can complete them again.
func (c *CatalogStore) ReopenChallenges(ctx context.Context, athleteID string, challengeIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range challengeIDs {
		delete(c.completed[id], athleteID)
	}
}

// Items lists marketplace items matching every set filter.
func (c *CatalogStore) Items(ctx context.Context, f MarketFilter) []model.MarketplaceItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.MarketplaceItem, 0, len(c.items))
	for _, it := range c.items {
		if matches(f.Sport, it.SportType) && matches(f.Type, string(it.Type)) && matches(f.Rarity, string(it.Rarity)) {
			out = append(out, it)
		}
	}
	return out
}

func matches(filter, value string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	return filter == "" || filter == model.SportAll || filter == value
}

// Item returns one marketplace item.
func (c *CatalogStore) Item(ctx context.Context, itemID string) (model.MarketplaceItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, it := range c.items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return model.MarketplaceItem{}, ErrNotFound
}

// Purchase records ownership. Titles and badges are added to the buyer's
// profile already claimed. A soulbound item can be owned once.
func (c *CatalogStore) Purchase(ctx context.Context, athleteID, itemID string) (model.MarketplaceItem, error) {
	if strings.TrimSpace(athleteID) == "" {
		return model.MarketplaceItem{}, ErrEmptyAthlete
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var item *model.MarketplaceItem
	for i := range c.items {
		if c.items[i].ID == itemID {
			item = &c.items[i]
			break
		}
	}
	if item == nil {
		return model.MarketplaceItem{}, ErrNotFound
	}
	if item.Soulbound && c.owned[athleteID][itemID] {
		return model.MarketplaceItem{}, ErrAlreadyOwned
	}
	mark(c.owned, athleteID, itemID)

	if item.Type == model.ItemTitle || item.Type == model.ItemBadge {
		p := c.profileLocked(athleteID)
		p.Titles = append(p.Titles, model.TitleNFT{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Image:       item.Image,
			DateEarned:  c.now().UTC(),
			Rarity:      item.Rarity,
			Claimed:     true,
		})
	}
	return *item, nil
}

// Profile returns an athlete's profile.
func (c *CatalogStore) Profile(ctx context.Context, athleteID string) (model.SportProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.profiles[athleteID]
	if !ok {
		return model.SportProfile{}, ErrNotFound
	}
	return cloneProfile(*p), nil
}

// Profiles returns every profile ordered by athlete ID.
func (c *CatalogStore) Profiles(ctx context.Context) []model.SportProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.SportProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, cloneProfile(*p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.ID < out[j].User.ID })
	return out
}

// RecordActivity adds a verified activity and its payout to the profile,
// creating the profile on first use.
func (c *CatalogStore) RecordActivity(ctx context.Context, athleteID string, activity model.ActivityRecord, xp, tokens int) (model.SportProfile, error) {
	if strings.TrimSpace(athleteID) == "" {
		return model.SportProfile{}, ErrEmptyAthlete
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.profileLocked(athleteID)
	p.TotalActivities++
	p.XP = addCapped(p.XP, xp)
	p.Tokens = addCapped(p.Tokens, tokens)
	if c.level != nil {
		p.Level, p.XPToNextLevel = c.level(p.XP)
	}

	p.RecentActivities = append([]model.ActivityRecord{activity}, p.RecentActivities...)
	if len(p.RecentActivities) > c.recentLimit {
		p.RecentActivities = p.RecentActivities[:c.recentLimit]
	}

	p.Streak = c.nextStreak(athleteID, p.Streak, activity.Date)
	return cloneProfile(*p), nil
}

// nextStreak counts consecutive UTC days with an activity.
func (c *CatalogStore) nextStreak(athleteID string, streak int, at time.Time) int {
	day := at.UTC().Truncate(24 * time.Hour)
	last, ok := c.lastActive[athleteID]
	if !ok {
		c.lastActive[athleteID] = day
		return 1
	}
	lastDay := last.UTC().Truncate(24 * time.Hour)
	switch {
	case day.Equal(lastDay), day.Before(lastDay):
		return max(streak, 1)
	case day.Sub(lastDay) == 24*time.Hour:
		c.lastActive[athleteID] = day
		return streak + 1
	default:
		c.lastActive[athleteID] = day
		return 1
	}
}

// ClaimTitle marks an earned title as minted.
func (c *CatalogStore) ClaimTitle(ctx context.Context, athleteID, titleID string) (model.TitleNFT, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.profiles[athleteID]
	if !ok {
		return model.TitleNFT{}, ErrNotFound
	}
	for i := range p.Titles {
		if p.Titles[i].ID != titleID {
			continue
		}
		if p.Titles[i].Claimed {
			return model.TitleNFT{}, ErrAlreadyClaimed
		}
		p.Titles[i].Claimed = true
		return p.Titles[i], nil
	}
	return model.TitleNFT{}, ErrNotFound
}

// profileLocked returns the athlete's profile, creating it. c.mu must be held.
func (c *CatalogStore) profileLocked(athleteID string) *model.SportProfile {
	p, ok := c.profiles[athleteID]
	if !ok {
		p = &model.SportProfile{User: model.User{ID: athleteID, Name: athleteID}}
		if c.level != nil {
			p.Level, p.XPToNextLevel = c.level(0)
		}
		c.profiles[athleteID] = p
	}
	return p
}

func cloneProfile(p model.SportProfile) model.SportProfile {
	p.Titles = append([]model.TitleNFT{}, p.Titles...)
	p.RecentActivities = append([]model.ActivityRecord{}, p.RecentActivities...)
	return p
}
