package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/okian/sportid/internal/app"
	"github.com/okian/sportid/internal/config"
	"github.com/okian/sportid/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			t.Setenv("SPORTID_ADDR", ":8080")
			t.Setenv("SPORTID_QUEUE_SIZE", "1000")
			t.Setenv("SPORTID_WORKER_COUNT", "4")

			convey.Convey("Then the env values override defaults", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("SPORTID_ADDR", "")

			convey.Convey("Then loading fails", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestStartServiceOutlivesSignal(t *testing.T) {
	convey.Convey("Given a service started from a signal context", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 1
		cfg.VerifyLatencyMinMS = 100
		cfg.VerifyLatencyMaxMS = 100

		svc := newService(cfg, logger.Get())
		sigCtx, signal := context.WithCancel(context.Background())
		convey.So(startService(sigCtx, svc), convey.ShouldBeNil)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = svc.Stop(stopCtx)
		}()

		ctx := context.Background()
		_, err := svc.ConnectWallet(ctx, "a", "")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the signal arrives while a submission is in flight", func() {
			_, err := svc.Submit(ctx, app.SubmitRequest{SubmissionID: "in-flight", AthleteID: "a"})
			convey.So(err, convey.ShouldBeNil)
			time.Sleep(20 * time.Millisecond)
			signal()
			_, err = svc.Submit(ctx, app.SubmitRequest{SubmissionID: "after-signal", AthleteID: "a"})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the workers keep processing until Stop", func() {
				for _, id := range []string{"in-flight", "after-signal"} {
					convey.So(awaitStatus(svc, id), convey.ShouldEqual, app.StatusProcessed)
				}
			})
		})
	})
}

// awaitStatus polls until the submission leaves the pending state.
func awaitStatus(svc *app.Service, id string) app.Status {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := svc.Submission(context.Background(), id)
		if err == nil && st.Status != app.StatusPending {
			return st.Status
		}
		time.Sleep(5 * time.Millisecond)
	}
	return app.StatusPending
}

func TestNewService(t *testing.T) {
	convey.Convey("Given a default configuration", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.QueueSize = 16
		cfg.VerifyLatencyMinMS = 0
		cfg.VerifyLatencyMaxMS = 0

		svc := newService(cfg, logger.Get())
		convey.So(svc, convey.ShouldNotBeNil)

		convey.Convey("Then configured sizes surface in stats", func() {
			stats := svc.GetStats()
			convey.So(stats["workerCount"], convey.ShouldEqual, 2)
			convey.So(stats["queueSize"], convey.ShouldEqual, 16)
			convey.So(stats["started"], convey.ShouldEqual, false)
		})

		convey.Convey("When the service runs behind the mux", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			mux := newMux(ctx, svc, cfg)

			convey.Convey("Then API, docs and landing routes respond", func() {
				for _, path := range []string{"/healthz", "/api-docs", "/openapi.yaml", "/", "/leaderboard?limit=3"} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("And extraction is reachable", func() {
				body := strings.NewReader(`{"text":"Distance 5.2 km Time 30:00","sport":"running"}`)
				req := httptest.NewRequest(http.MethodPost, "/activities/extract", body)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"distance"`)
			})

			convey.Convey("And service metrics update without panicking", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("When the system updater runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx, 10*time.Millisecond) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the service updater runs until cancelled", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, svc, 10*time.Millisecond) }, convey.ShouldNotPanic)
		})

		convey.Convey("When system metrics are refreshed directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
