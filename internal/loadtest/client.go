package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/sportid/internal/domain/model"
)

// apiError is the service's error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPError is returned for unexpected status codes.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client is a thin JSON client for the sportid API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
	return err
}

// ConnectWallet connects a generated wallet for athleteID.
func (c *Client) ConnectWallet(ctx context.Context, athleteID string) error {
	_, err := c.do(ctx, http.MethodPost, "/wallet/"+url.PathEscape(athleteID), nil, nil, http.StatusOK)
	return err
}

// Extract sends screenshot text to POST /activities/extract.
func (c *Client) Extract(ctx context.Context, text string, sport model.SportType) (model.ExtractedActivityData, error) {
	body := map[string]any{"text": text, "sport": string(sport), "confidence": 90}
	var data model.ExtractedActivityData
	_, err := c.do(ctx, http.MethodPost, "/activities/extract", body, &data, http.StatusOK)
	return data, err
}

// Submit posts a confirmed activity. The receipt's Duplicate flag reflects
// a 200 response; new submissions answer 202.
func (c *Client) Submit(ctx context.Context, s Submission, data model.ExtractedActivityData) (Receipt, error) {
	body := map[string]any{
		"submission_id": s.SubmissionID,
		"athlete_id":    s.AthleteID,
		"content":       s.Content,
		"data":          data,
	}
	var r Receipt
	_, err := c.do(ctx, http.MethodPost, "/activities", body, &r, http.StatusAccepted, http.StatusOK)
	return r, err
}

// Submission fetches GET /activities/{id}.
func (c *Client) Submission(ctx context.Context, id string) (Status, error) {
	var st Status
	_, err := c.do(ctx, http.MethodGet, "/activities/"+url.PathEscape(id), nil, &st, http.StatusOK)
	return st, err
}

// Rank fetches GET /rank/{athlete}.
func (c *Client) Rank(ctx context.Context, athleteID string) (Entry, error) {
	var e Entry
	_, err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(athleteID), nil, &e, http.StatusOK)
	return e, err
}

// Leaderboard fetches GET /leaderboard?limit=n.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", n), nil, &entries, http.StatusOK)
	return entries, err
}

// do performs a request and decodes the body into out when the status is
// one of want.
func (c *Client) do(ctx context.Context, method, path string, in, out any, want ...int) (int, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	for _, code := range want {
		if resp.StatusCode != code {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, fmt.Errorf("decode response: %w", err)
			}
		}
		return resp.StatusCode, nil
	}

	herr := &HTTPError{StatusCode: resp.StatusCode}
	var ae apiError
	if json.Unmarshal(raw, &ae) == nil {
		herr.Code, herr.Message = ae.Code, ae.Message
	}
	return resp.StatusCode, herr
}
