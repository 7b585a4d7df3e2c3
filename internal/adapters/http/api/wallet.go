package api

import (
	"context"
	"net/http"

	"github.com/okian/sportid/internal/domain/wallet"
)

// WalletDependencies defines the interface for wallet sessions.
type WalletDependencies interface {
	Wallet(ctx context.Context, athleteID string) (wallet.Status, error)
	ConnectWallet(ctx context.Context, athleteID, address string) (wallet.Status, error)
	DisconnectWallet(ctx context.Context, athleteID string) (wallet.Status, error)
}

// WalletHandler handles wallet requests.
type WalletHandler struct {
	deps WalletDependencies
}

// NewWalletHandler creates a new wallet handler.
func NewWalletHandler(deps WalletDependencies) *WalletHandler {
	return &WalletHandler{deps: deps}
}

// connectRequest is the optional body of POST /wallet/{athlete}. An empty
// address connects a generated one.
type connectRequest struct {
	Address string `json:"address"`
}

// HandleStatus handles GET /wallet/{athlete} requests.
func (h *WalletHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.wallet_status"
	st, err := h.deps.Wallet(r.Context(), r.PathValue("athlete"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleConnect handles POST /wallet/{athlete} requests.
func (h *WalletHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	const op = "api.wallet_connect"
	var req connectRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := h.deps.ConnectWallet(r.Context(), r.PathValue("athlete"), req.Address)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleDisconnect handles DELETE /wallet/{athlete} requests.
func (h *WalletHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	const op = "api.wallet_disconnect"
	st, err := h.deps.DisconnectWallet(r.Context(), r.PathValue("athlete"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
