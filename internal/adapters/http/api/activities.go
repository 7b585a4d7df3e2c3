package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/sportid/internal/app"
	"github.com/okian/sportid/internal/domain/model"
)

// ActivityDependencies defines the interface for extraction and submission.
type ActivityDependencies interface {
	Extract(ctx context.Context, text, sport string, confidence float64) (model.ExtractedActivityData, error)
	Submit(ctx context.Context, req service.SubmitRequest) (service.Receipt, error)
	Submission(ctx context.Context, submissionID string) (service.SubmissionStatus, error)
}

// ActivityHandler handles activity requests.
type ActivityHandler struct {
	deps ActivityDependencies
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps ActivityDependencies) *ActivityHandler {
	return &ActivityHandler{deps: deps}
}

// extractRequest is the body of POST /activities/extract.
type extractRequest struct {
	Text       string  `json:"text"`
	Sport      string  `json:"sport"`
	Confidence float64 `json:"confidence"`
}

// submitRequest is the body of POST /activities.
type submitRequest struct {
	SubmissionID string                      `json:"submission_id"`
	AthleteID    string                      `json:"athlete_id"`
	Content      string                      `json:"content"`
	Images       []string                    `json:"images"`
	Data         model.ExtractedActivityData `json:"data"`
}

func (s submitRequest) validate() error {
	if strings.TrimSpace(s.AthleteID) == "" {
		return errors.New("missing athlete_id")
	}
	return nil
}

// HandleExtract handles POST /activities/extract requests.
func (h *ActivityHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	const op = "api.extract_activity"
	var req extractRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	data, err := h.deps.Extract(r.Context(), req.Text, req.Sport, req.Confidence)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// HandleSubmit handles POST /activities requests.
func (h *ActivityHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_activity"
	var req submitRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Submit(r.Context(), service.SubmitRequest{
		SubmissionID: req.SubmissionID,
		AthleteID:    req.AthleteID,
		Content:      req.Content,
		Images:       req.Images,
		Data:         req.Data,
	})
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if rec.Duplicate {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

// HandleGetSubmission handles GET /activities/{id} requests.
func (h *ActivityHandler) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_submission"
	st, err := h.deps.Submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
