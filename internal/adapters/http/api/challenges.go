package api

import (
	"context"
	"net/http"

	"github.com/okian/sportid/internal/domain/model"
)

// ChallengeDependencies defines the interface for daily challenges.
type ChallengeDependencies interface {
	Challenges(ctx context.Context, athleteID string) ([]model.Challenge, error)
	JoinChallenge(ctx context.Context, athleteID, challengeID string) (model.Challenge, error)
}

// ChallengeHandler handles challenge requests.
type ChallengeHandler struct {
	deps ChallengeDependencies
}

// NewChallengeHandler creates a new challenge handler.
func NewChallengeHandler(deps ChallengeDependencies) *ChallengeHandler {
	return &ChallengeHandler{deps: deps}
}

// HandleList handles GET /challenges?athlete_id=A requests. Without an
// athlete, Joined and Completed are false.
func (h *ChallengeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_challenges"
	list, err := h.deps.Challenges(r.Context(), r.URL.Query().Get("athlete_id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleJoin handles POST /challenges/{id}/join requests.
func (h *ChallengeHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	const op = "api.join_challenge"
	var req athleteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ch, err := h.deps.JoinChallenge(r.Context(), req.AthleteID, r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}
