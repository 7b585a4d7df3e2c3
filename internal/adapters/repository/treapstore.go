package repository

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/okian/sportid/pkg/metrics"
)

// Treap-based, in-memory Leaderboard implementation.
//
// Ordering: XP DESC, then athleteID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Subtree sizes make Rank O(log n).

const defaultMetricsUpdateInterval = 5 * time.Second

// treap node
type node struct {
	id    string
	xp    int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aXP, aID) should appear before (bXP, bID).
func less(aXP int, aID string, bXP int, bID string) bool {
	if aXP != bXP {
		return aXP > bXP
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, xp int, prio uint64) *node {
	if n == nil {
		return &node{id: id, xp: xp, prio: prio, size: 1}
	}
	if less(xp, id, n.xp, n.id) {
		n.left = insert(n.left, id, xp, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, xp, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, xp int) *node {
	if n == nil {
		return nil
	}
	if xp == n.xp && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, xp)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, xp)
		}
	} else if less(xp, id, n.xp, n.id) {
		n.left = deleteNode(n.left, id, xp)
	} else {
		n.right = deleteNode(n.right, id, xp)
	}
	fix(n)
	return n
}

// countAbove returns how many athletes have strictly more XP than xp.
func countAbove(n *node, xp int) int {
	count := 0
	for n != nil {
		if n.xp > xp {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{AthleteID: n.id, XP: n.xp})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore is the XP leaderboard.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]int
	rng  *rand.Rand
	seed uint64

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a leaderboard and starts its metrics updater,
// which stops when ctx ends or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]int),
		seed:                  uint64(time.Now().UnixNano()),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // treap priorities

	metrics.UpdateLeaderboardAthletes(0)
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// AddXP implements Leaderboard.AddXP in O(log n) expected time.
func (s *TreapStore) AddXP(ctx context.Context, athleteID string, xp int) (Entry, error) {
	athleteID = strings.TrimSpace(athleteID)
	if athleteID == "" {
		return Entry{}, ErrEmptyAthlete
	}
	if xp <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_xp")
		return Entry{}, ErrInvalidXP
	}

	s.mu.Lock()
	total := xp
	old, existed := s.byID[athleteID]
	if existed {
		total = addCapped(old, xp)
		s.root = deleteNode(s.root, athleteID, old)
	}
	s.byID[athleteID] = total
	s.root = insert(s.root, athleteID, total, s.rng.Uint64())
	rank := countAbove(s.root, total) + 1
	count := len(s.byID)
	s.mu.Unlock()

	if !existed {
		metrics.UpdateLeaderboardAthletes(count)
	}
	return Entry{Rank: rank, AthleteID: athleteID, XP: total}, nil
}

// Rank returns the athlete's rank in O(log n). Athletes with equal XP
// share a rank and the next rank skips past them.
func (s *TreapStore) Rank(ctx context.Context, athleteID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	xp, ok := s.byID[athleteID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{Rank: countAbove(s.root, xp) + 1, AthleteID: athleteID, XP: xp}, nil
}

// TopN returns the top n entries ordered by XP desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &out)
	s.mu.RUnlock()

	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of athletes.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateLeaderboardAthletes(s.Count(ctx))
			}
		}
	}()
}

// assignRanksWithTies gives equal XP the same rank; the next distinct XP
// takes its 1-based position.
func assignRanksWithTies(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].XP == entries[i-1].XP {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
