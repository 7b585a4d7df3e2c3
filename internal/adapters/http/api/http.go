// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/sportid/internal/domain/types"
)

// maxBodyBytes bounds request bodies; recognized text is the largest payload.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ActivityDependencies
	FeedDependencies
	ChallengeDependencies
	MarketplaceDependencies
	ProfileDependencies
	WalletDependencies
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	activityHandler    *ActivityHandler
	feedHandler        *FeedHandler
	challengeHandler   *ChallengeHandler
	marketHandler      *MarketplaceHandler
	profileHandler     *ProfileHandler
	walletHandler      *WalletHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		activityHandler:    NewActivityHandler(deps),
		feedHandler:        NewFeedHandler(deps),
		challengeHandler:   NewChallengeHandler(deps),
		marketHandler:      NewMarketplaceHandler(deps),
		profileHandler:     NewProfileHandler(deps),
		walletHandler:      NewWalletHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /sports", MetricsMiddleware(handleSports, "sports"))

	mux.HandleFunc("POST /activities/extract", MetricsMiddleware(s.activityHandler.HandleExtract, "activities_extract"))
	mux.HandleFunc("POST /activities", MetricsMiddleware(s.activityHandler.HandleSubmit, "activities_submit"))
	mux.HandleFunc("GET /activities/{id}", MetricsMiddleware(s.activityHandler.HandleGetSubmission, "activities_get"))

	mux.HandleFunc("GET /feed", MetricsMiddleware(s.feedHandler.HandleList, "feed"))
	mux.HandleFunc("POST /feed/{id}/like", MetricsMiddleware(s.feedHandler.HandleLike, "feed_like"))

	mux.HandleFunc("GET /challenges", MetricsMiddleware(s.challengeHandler.HandleList, "challenges"))
	mux.HandleFunc("POST /challenges/{id}/join", MetricsMiddleware(s.challengeHandler.HandleJoin, "challenges_join"))

	mux.HandleFunc("GET /marketplace", MetricsMiddleware(s.marketHandler.HandleList, "marketplace"))
	mux.HandleFunc("POST /marketplace/{id}/purchase", MetricsMiddleware(s.marketHandler.HandlePurchase, "marketplace_purchase"))

	mux.HandleFunc("GET /profile/{athlete}", MetricsMiddleware(s.profileHandler.HandleGet, "profile"))
	mux.HandleFunc("POST /profile/{athlete}/titles/{id}/claim", MetricsMiddleware(s.profileHandler.HandleClaimTitle, "profile_claim"))

	mux.HandleFunc("GET /wallet/{athlete}", MetricsMiddleware(s.walletHandler.HandleStatus, "wallet"))
	mux.HandleFunc("POST /wallet/{athlete}", MetricsMiddleware(s.walletHandler.HandleConnect, "wallet_connect"))
	mux.HandleFunc("DELETE /wallet/{athlete}", MetricsMiddleware(s.walletHandler.HandleDisconnect, "wallet_disconnect"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{athlete}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

// athleteRequest is the body of actions taken on behalf of an athlete.
type athleteRequest struct {
	AthleteID string `json:"athlete_id"`
}

func (a athleteRequest) validate() error {
	if strings.TrimSpace(a.AthleteID) == "" {
		return errors.New("missing athlete_id")
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeJSON reads a bounded JSON body. An empty body is allowed when
// optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error response.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code, kind := classify(err)
	writeError(w, status, code, WrapKind(op, kind, err))
}
