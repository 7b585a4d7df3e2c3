package api

import (
	"context"
	"net/http"

	"github.com/okian/sportid/internal/domain/model"
)

// FeedDependencies defines the interface for the social feed.
type FeedDependencies interface {
	Feed(ctx context.Context, sport string) ([]model.Post, error)
	LikePost(ctx context.Context, postID string) (model.Post, error)
}

// FeedHandler handles feed requests.
type FeedHandler struct {
	deps FeedDependencies
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(deps FeedDependencies) *FeedHandler {
	return &FeedHandler{deps: deps}
}

// HandleList handles GET /feed?sport=S requests.
func (h *FeedHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_feed"
	posts, err := h.deps.Feed(r.Context(), r.URL.Query().Get("sport"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleLike handles POST /feed/{id}/like requests.
func (h *FeedHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	const op = "api.like_post"
	post, err := h.deps.LikePost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleSports handles GET /sports, the filter bar shared by feed and marketplace.
func handleSports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.SportFilters())
}
