package api

import (
	"context"
	"net/http"

	"github.com/okian/sportid/internal/adapters/repository"
	"github.com/okian/sportid/internal/domain/model"
)

// MarketplaceDependencies defines the interface for the marketplace.
type MarketplaceDependencies interface {
	Marketplace(ctx context.Context, filter repository.MarketFilter) ([]model.MarketplaceItem, error)
	Purchase(ctx context.Context, athleteID, itemID string) (model.MarketplaceItem, error)
}

// MarketplaceHandler handles marketplace requests.
type MarketplaceHandler struct {
	deps MarketplaceDependencies
}

// NewMarketplaceHandler creates a new marketplace handler.
func NewMarketplaceHandler(deps MarketplaceDependencies) *MarketplaceHandler {
	return &MarketplaceHandler{deps: deps}
}

// HandleList handles GET /marketplace?sport=S&type=T&rarity=R requests.
func (h *MarketplaceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_marketplace"
	q := r.URL.Query()
	items, err := h.deps.Marketplace(r.Context(), repository.MarketFilter{
		Sport:  q.Get("sport"),
		Type:   q.Get("type"),
		Rarity: q.Get("rarity"),
	})
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandlePurchase handles POST /marketplace/{id}/purchase requests.
func (h *MarketplaceHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	const op = "api.purchase_item"
	var req athleteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	item, err := h.deps.Purchase(r.Context(), req.AthleteID, r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
