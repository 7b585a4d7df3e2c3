// Package wallet manages per-athlete wallet sessions used to sign reward
// operations. The chain itself is stubbed: connected operations are logged
// and succeed.
package wallet

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportid/pkg/logger"
	"github.com/okian/sportid/pkg/metrics"
)

// Operation names, as reported in metrics.
const (
	OpConnect        = "connect"
	OpDisconnect     = "disconnect"
	OpClaimTitle     = "claim_title"
	OpJoinChallenge  = "join_challenge"
	OpVerifyActivity = "verify_activity"
	OpPurchaseItem   = "purchase_item"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Status is a snapshot of a session.
type Status struct {
	AthleteID   string     `json:"athlete_id"`
	Connected   bool       `json:"connected"`
	Address     string     `json:"address,omitempty"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
}

// Session is one athlete's wallet connection. It is safe for concurrent use.
type Session struct {
	athleteID string
	now       func() time.Time
	logger    logger.Logger

	mu          sync.RWMutex
	connected   bool
	address     string
	connectedAt time.Time
}

// Connect attaches a wallet address to the session. An empty address
// generates a mock one. Connecting again replaces the address.
func (s *Session) Connect(ctx context.Context, address string) (Status, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		address = mockAddress()
	}
	if !addressPattern.MatchString(address) {
		metrics.RecordWalletOperation(OpConnect, outcomeRejected)
		return s.Status(), fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	s.mu.Lock()
	s.connected = true
	s.address = address
	s.connectedAt = s.now()
	s.mu.Unlock()

	metrics.RecordWalletOperation(OpConnect, outcomeOK)
	s.logger.Info(ctx, "wallet connected",
		logger.String("athlete_id", s.athleteID),
		logger.String("address", address),
	)
	return s.Status(), nil
}

// Disconnect detaches the wallet. Disconnecting twice is a no-op.
func (s *Session) Disconnect(ctx context.Context) Status {
	s.mu.Lock()
	was := s.connected
	s.connected = false
	s.address = ""
	s.connectedAt = time.Time{}
	s.mu.Unlock()

	if was {
		metrics.RecordWalletOperation(OpDisconnect, outcomeOK)
		s.logger.Info(ctx, "wallet disconnected", logger.String("athlete_id", s.athleteID))
	}
	return s.Status()
}

// Status returns the current session state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{AthleteID: s.athleteID, Connected: s.connected, Address: s.address}
	if s.connected {
		at := s.connectedAt
		st.ConnectedAt = &at
	}
	return st
}

// Connected reports whether a wallet is attached.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// ClaimTitle mints an earned title to the wallet.
func (s *Session) ClaimTitle(ctx context.Context, titleID string) error {
	return s.do(ctx, OpClaimTitle, logger.String("title_id", titleID))
}

// JoinChallenge registers the wallet for a challenge.
func (s *Session) JoinChallenge(ctx context.Context, challengeID string) error {
	return s.do(ctx, OpJoinChallenge, logger.String("challenge_id", challengeID))
}

// VerifyActivity records a confirmed activity on chain.
func (s *Session) VerifyActivity(ctx context.Context, submissionID string) error {
	return s.do(ctx, OpVerifyActivity, logger.String("submission_id", submissionID))
}

// PurchaseItem buys a marketplace item with the wallet.
func (s *Session) PurchaseItem(ctx context.Context, itemID string) error {
	return s.do(ctx, OpPurchaseItem, logger.String("item_id", itemID))
}

func (s *Session) do(ctx context.Context, op string, field logger.Field) error {
	s.mu.RLock()
	connected, address := s.connected, s.address
	s.mu.RUnlock()

	if !connected {
		metrics.RecordWalletOperation(op, outcomeRejected)
		return fmt.Errorf("%s for athlete %s: %w", op, s.athleteID, ErrNotConnected)
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordWalletOperation(op, outcomeRejected)
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordWalletOperation(op, outcomeOK)
	s.logger.Info(ctx, "wallet operation",
		logger.String("operation", op),
		logger.String("athlete_id", s.athleteID),
		logger.String("address", address),
		field,
	)
	return nil
}

func mockAddress() string {
	hex := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return "0x" + hex[:40]
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now for connection timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger handed to sessions.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// Registry owns every athlete's session.
type Registry struct {
	now    func() time.Time
	logger logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("wallet")
	}
	return r
}

// Session returns the athlete's session, creating a disconnected one on
// first use.
func (r *Registry) Session(athleteID string) (*Session, error) {
	athleteID = strings.TrimSpace(athleteID)
	if athleteID == "" {
		return nil, ErrEmptyAthlete
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[athleteID]
	if !ok {
		s = &Session{athleteID: athleteID, now: r.now, logger: r.logger}
		r.sessions[athleteID] = s
	}
	return s, nil
}

// Connected returns the number of sessions with an attached wallet.
func (r *Registry) Connected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.Connected() {
			n++
		}
	}
	return n
}
