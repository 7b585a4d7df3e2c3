package api

import (
	"context"
	"net/http"

	"github.com/okian/sportid/internal/domain/model"
)

// ProfileDependencies defines the interface for Sport ID profiles.
type ProfileDependencies interface {
	Profile(ctx context.Context, athleteID string) (model.SportProfile, error)
	ClaimTitle(ctx context.Context, athleteID, titleID string) (model.TitleNFT, error)
}

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleGet handles GET /profile/{athlete} requests.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	p, err := h.deps.Profile(r.Context(), r.PathValue("athlete"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleClaimTitle handles POST /profile/{athlete}/titles/{id}/claim requests.
func (h *ProfileHandler) HandleClaimTitle(w http.ResponseWriter, r *http.Request) {
	const op = "api.claim_title"
	title, err := h.deps.ClaimTitle(r.Context(), r.PathValue("athlete"), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, title)
}
