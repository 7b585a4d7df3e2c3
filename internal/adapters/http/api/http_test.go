package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/sportid/internal/adapters/http/api"
	"github.com/okian/sportid/internal/adapters/repository"
	service "github.com/okian/sportid/internal/app"
	"github.com/okian/sportid/internal/domain/extract"
	"github.com/okian/sportid/internal/domain/model"
	"github.com/okian/sportid/internal/domain/types"
	"github.com/okian/sportid/internal/domain/wallet"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies with canned results.
type mockDependencies struct {
	submitted  []service.SubmitRequest
	submitErr  error
	duplicate  bool
	connected  map[string]bool
	lastFilter repository.MarketFilter
	topN       []types.Entry
	topNErr    error
	rank       types.Entry
	rankErr    error
	stats      map[string]any
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		connected: map[string]bool{},
		topN: []types.Entry{
			{Rank: 1, AthleteID: "a", XP: 300},
			{Rank: 2, AthleteID: "b", XP: 200},
			{Rank: 3, AthleteID: "c", XP: 100},
		},
		rank:  types.Entry{Rank: 2, AthleteID: "b", XP: 200},
		stats: map[string]any{"started": true},
	}
}

func (m *mockDependencies) Extract(ctx context.Context, text, sport string, confidence float64) (model.ExtractedActivityData, error) {
	if sport == "curling" {
		return model.ExtractedActivityData{}, service.ErrInvalidSport
	}
	st := model.SportRunning
	if sport != "" {
		st = model.SportType(sport)
	}
	return extract.Extract(text, st, confidence), nil
}

func (m *mockDependencies) Submit(ctx context.Context, req service.SubmitRequest) (service.Receipt, error) {
	if m.submitErr != nil {
		return service.Receipt{}, m.submitErr
	}
	if !m.connected[req.AthleteID] {
		return service.Receipt{}, wallet.ErrNotConnected
	}
	m.submitted = append(m.submitted, req)
	return service.Receipt{SubmissionID: req.SubmissionID, Status: service.StatusPending, Duplicate: m.duplicate}, nil
}

func (m *mockDependencies) Submission(ctx context.Context, id string) (service.SubmissionStatus, error) {
	if id != "s1" {
		return service.SubmissionStatus{}, repository.ErrNotFound
	}
	return service.SubmissionStatus{SubmissionID: id, Status: service.StatusProcessed, XP: 110}, nil
}

func (m *mockDependencies) Feed(ctx context.Context, sport string) ([]model.Post, error) {
	posts := []model.Post{
		{ID: "p1", ActivityData: &model.PostActivity{Type: model.SportRunning}},
		{ID: "p2", ActivityData: &model.PostActivity{Type: model.SportGym}},
	}
	var out []model.Post
	for _, p := range posts {
		if model.MatchesSport(sport, p.Sport()) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockDependencies) LikePost(ctx context.Context, postID string) (model.Post, error) {
	if postID != "p1" {
		return model.Post{}, repository.ErrNotFound
	}
	return model.Post{ID: "p1", Likes: 1}, nil
}

func (m *mockDependencies) Challenges(ctx context.Context, athleteID string) ([]model.Challenge, error) {
	return []model.Challenge{{ID: "chl1", Joined: athleteID == "a"}}, nil
}

func (m *mockDependencies) JoinChallenge(ctx context.Context, athleteID, challengeID string) (model.Challenge, error) {
	switch {
	case !m.connected[athleteID]:
		return model.Challenge{}, wallet.ErrNotConnected
	case challengeID == "old":
		return model.Challenge{}, repository.ErrChallengeExpired
	case challengeID == "joined":
		return model.Challenge{}, repository.ErrAlreadyJoined
	}
	return model.Challenge{ID: challengeID, Joined: true}, nil
}

func (m *mockDependencies) Marketplace(ctx context.Context, filter repository.MarketFilter) ([]model.MarketplaceItem, error) {
	m.lastFilter = filter
	return []model.MarketplaceItem{{ID: "item1"}}, nil
}

func (m *mockDependencies) Purchase(ctx context.Context, athleteID, itemID string) (model.MarketplaceItem, error) {
	if itemID == "owned" {
		return model.MarketplaceItem{}, repository.ErrAlreadyOwned
	}
	return model.MarketplaceItem{ID: itemID}, nil
}

func (m *mockDependencies) Profile(ctx context.Context, athleteID string) (model.SportProfile, error) {
	if athleteID != "a" {
		return model.SportProfile{}, repository.ErrNotFound
	}
	return model.SportProfile{User: model.User{ID: "a", Name: "Alex"}, Level: 3}, nil
}

func (m *mockDependencies) ClaimTitle(ctx context.Context, athleteID, titleID string) (model.TitleNFT, error) {
	return model.TitleNFT{ID: titleID, Claimed: true}, nil
}

func (m *mockDependencies) Wallet(ctx context.Context, athleteID string) (wallet.Status, error) {
	return wallet.Status{AthleteID: athleteID, Connected: m.connected[athleteID]}, nil
}

func (m *mockDependencies) ConnectWallet(ctx context.Context, athleteID, address string) (wallet.Status, error) {
	if address == "bad" {
		return wallet.Status{}, wallet.ErrInvalidAddress
	}
	m.connected[athleteID] = true
	return wallet.Status{AthleteID: athleteID, Connected: true, Address: address}, nil
}

func (m *mockDependencies) DisconnectWallet(ctx context.Context, athleteID string) (wallet.Status, error) {
	delete(m.connected, athleteID)
	return wallet.Status{AthleteID: athleteID}, nil
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) Rank(ctx context.Context, athleteID string) (types.Entry, error) {
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	return m.rank, nil
}

func (m *mockDependencies) GetStats() map[string]any {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, 2).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDependencies())

		Convey("Then health serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "sportid_rewards_")
		})

		Convey("Then stats serves JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then sports lists the filter bar", func() {
			w := do(mux, http.MethodGet, "/sports", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var filters []model.SportFilter
			So(json.Unmarshal(w.Body.Bytes(), &filters), ShouldBeNil)
			So(filters[0].Value, ShouldEqual, "all")
			So(filters[1].Label, ShouldEqual, "Running")
		})

		Convey("Then unknown paths are not found", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then wrong methods are rejected", func() {
			So(do(mux, http.MethodDelete, "/leaderboard?limit=1", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestActivityHandlers(t *testing.T) {
	Convey("Given the activity endpoints", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When extracting recognized text", func() {
			w := do(mux, http.MethodPost, "/activities/extract",
				`{"text":"Distance: 3.1 mi\nDuration: 28:30 min\nDate: 05/01/2023","sport":"running","confidence":87.5}`)

			Convey("Then the record is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var data model.ExtractedActivityData
				So(json.Unmarshal(w.Body.Bytes(), &data), ShouldBeNil)
				So(*data.Distance, ShouldAlmostEqual, 3.1*extract.KilometersPerMile, 1e-9)
				So(*data.Duration, ShouldEqual, 29)
				So(*data.Date, ShouldEqual, "2023-05-01T00:00:00.000Z")
				So(data.Confidence, ShouldEqual, 87.5)
				So(data.DateInferred, ShouldBeFalse)
				So(data.Calories, ShouldBeNil)
			})
		})

		Convey("When extracting with malformed JSON", func() {
			w := do(mux, http.MethodPost, "/activities/extract", `{"text":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})
		})

		Convey("When extracting with an unknown sport", func() {
			w := do(mux, http.MethodPost, "/activities/extract", `{"text":"","sport":"curling"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When submitting without an athlete", func() {
			w := do(mux, http.MethodPost, "/activities", `{"submission_id":"s1"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "missing athlete_id")
			})
		})

		Convey("When submitting with a disconnected wallet", func() {
			w := do(mux, http.MethodPost, "/activities", `{"submission_id":"s1","athlete_id":"a"}`)

			Convey("Then it is forbidden", func() {
				So(w.Code, ShouldEqual, http.StatusForbidden)
				So(errorCode(w), ShouldEqual, "wallet_not_connected")
			})
		})

		Convey("When submitting with a connected wallet", func() {
			deps.connected["a"] = true
			w := do(mux, http.MethodPost, "/activities",
				`{"submission_id":"s1","athlete_id":"a","content":"Easy run","data":{"type":"running","duration":30,"distance":5}}`)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"pending"`)
				So(len(deps.submitted), ShouldEqual, 1)
				So(deps.submitted[0].Content, ShouldEqual, "Easy run")
				So(*deps.submitted[0].Data.Distance, ShouldEqual, 5)
				So(deps.submitted[0].Images, ShouldBeEmpty)
			})
		})

		Convey("When submitting with images", func() {
			deps.connected["a"] = true
			w := do(mux, http.MethodPost, "/activities",
				`{"submission_id":"s2","athlete_id":"a","images":["/uploads/run.png","/uploads/map.png"],"data":{"type":"running"}}`)

			Convey("Then the images are passed through", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.submitted), ShouldEqual, 1)
				So(deps.submitted[0].Images, ShouldResemble, []string{"/uploads/run.png", "/uploads/map.png"})
			})
		})

		Convey("When the submission is a duplicate", func() {
			deps.connected["a"] = true
			deps.duplicate = true
			w := do(mux, http.MethodPost, "/activities", `{"submission_id":"s1","athlete_id":"a"}`)

			Convey("Then it is acknowledged with 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})
		})

		Convey("When the queue is full", func() {
			deps.submitErr = service.ErrBackpressure
			w := do(mux, http.MethodPost, "/activities", `{"submission_id":"s1","athlete_id":"a"}`)

			Convey("Then it is throttled", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(errorCode(w), ShouldEqual, "backpressure")
			})
		})

		Convey("When the service is not running", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/activities", `{"submission_id":"s1","athlete_id":"a"}`)

			Convey("Then it is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When reading submission status", func() {
			found := do(mux, http.MethodGet, "/activities/s1", "")
			missing := do(mux, http.MethodGet, "/activities/nope", "")

			Convey("Then known ids are returned and unknown ids are 404", func() {
				So(found.Code, ShouldEqual, http.StatusOK)
				So(found.Body.String(), ShouldContainSubstring, `"status":"processed"`)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSocialHandlers(t *testing.T) {
	Convey("Given the feed, challenge and marketplace endpoints", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When filtering the feed by sport", func() {
			w := do(mux, http.MethodGet, "/feed?sport=gym", "")

			Convey("Then only matching posts are returned", func() {
				var posts []model.Post
				So(json.Unmarshal(w.Body.Bytes(), &posts), ShouldBeNil)
				So(len(posts), ShouldEqual, 1)
				So(posts[0].ID, ShouldEqual, "p2")
			})
		})

		Convey("When liking posts", func() {
			So(do(mux, http.MethodPost, "/feed/p1/like", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodPost, "/feed/zz/like", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When listing challenges for an athlete", func() {
			w := do(mux, http.MethodGet, "/challenges?athlete_id=a", "")

			Convey("Then the athlete view is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"joined":true`)
			})
		})

		Convey("When joining challenges", func() {
			noBody := do(mux, http.MethodPost, "/challenges/chl1/join", "")
			disconnected := do(mux, http.MethodPost, "/challenges/chl1/join", `{"athlete_id":"a"}`)
			deps.connected["a"] = true
			ok := do(mux, http.MethodPost, "/challenges/chl1/join", `{"athlete_id":"a"}`)
			expired := do(mux, http.MethodPost, "/challenges/old/join", `{"athlete_id":"a"}`)
			again := do(mux, http.MethodPost, "/challenges/joined/join", `{"athlete_id":"a"}`)

			Convey("Then each outcome maps to its status", func() {
				So(noBody.Code, ShouldEqual, http.StatusBadRequest)
				So(disconnected.Code, ShouldEqual, http.StatusForbidden)
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(expired.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(expired), ShouldEqual, "challenge_expired")
				So(again.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(again), ShouldEqual, "conflict")
			})
		})

		Convey("When listing the marketplace with filters", func() {
			w := do(mux, http.MethodGet, "/marketplace?sport=running&type=title&rarity=epic", "")

			Convey("Then the filter is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastFilter, ShouldResemble, repository.MarketFilter{Sport: "running", Type: "title", Rarity: "epic"})
			})
		})

		Convey("When purchasing items", func() {
			ok := do(mux, http.MethodPost, "/marketplace/item1/purchase", `{"athlete_id":"a"}`)
			owned := do(mux, http.MethodPost, "/marketplace/owned/purchase", `{"athlete_id":"a"}`)

			Convey("Then new items succeed and owned soulbound items conflict", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(owned.Code, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestProfileAndWalletHandlers(t *testing.T) {
	Convey("Given the profile and wallet endpoints", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When reading profiles", func() {
			ok := do(mux, http.MethodGet, "/profile/a", "")
			missing := do(mux, http.MethodGet, "/profile/zz", "")

			Convey("Then known athletes are returned", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(ok.Body.String(), ShouldContainSubstring, `"name":"Alex"`)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When claiming a title", func() {
			w := do(mux, http.MethodPost, "/profile/a/titles/nft1/claim", "")

			Convey("Then the claimed title is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"claimed":true`)
			})
		})

		Convey("When connecting without a body", func() {
			w := do(mux, http.MethodPost, "/wallet/a", "")

			Convey("Then the wallet connects", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.connected["a"], ShouldBeTrue)
			})
		})

		Convey("When connecting with an invalid address", func() {
			w := do(mux, http.MethodPost, "/wallet/a", `{"address":"bad"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When disconnecting", func() {
			deps.connected["a"] = true
			w := do(mux, http.MethodDelete, "/wallet/a", "")
			status := do(mux, http.MethodGet, "/wallet/a", "")

			Convey("Then the status shows disconnected", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(status.Body.String(), ShouldContainSubstring, `"connected":false`)
			})
		})
	})
}

func TestLeaderboardHandlers(t *testing.T) {
	Convey("Given the leaderboard endpoints with a max limit of 2", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When the limit is valid", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=2", "")

			Convey("Then the top entries are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].AthleteID, ShouldEqual, "a")
			})
		})

		Convey("When the limit is missing, invalid or too large", func() {
			So(do(mux, http.MethodGet, "/leaderboard", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=x", "").Code, ShouldEqual, http.StatusBadRequest)
			w := do(mux, http.MethodGet, "/leaderboard?limit=3", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "limit_exceeded")
		})

		Convey("When the store fails", func() {
			deps.topNErr = context.DeadlineExceeded
			w := do(mux, http.MethodGet, "/leaderboard?limit=1", "")

			Convey("Then it is an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(errorCode(w), ShouldEqual, "internal_error")
			})
		})

		Convey("When asking for a rank", func() {
			ok := do(mux, http.MethodGet, "/rank/b", "")
			deps.rankErr = repository.ErrNotFound
			missing := do(mux, http.MethodGet, "/rank/zz", "")

			Convey("Then known athletes are ranked and unknown are 404", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(ok.Body.String(), ShouldContainSubstring, `"rank":2`)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
