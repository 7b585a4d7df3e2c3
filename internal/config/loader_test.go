package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/sportid/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SPORTID_CONFIG",
	"SPORTID_ADDR",
	"SPORTID_QUEUE_SIZE",
	"SPORTID_WORKER_COUNT",
	"SPORTID_DEFAULT_SPORT",
	"SPORTID_SEED_FIXTURES",
	"SPORTID_VERIFY_LATENCY_MIN_MS",
	"SPORTID_VERIFY_LATENCY_MAX_MS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sportid.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DefaultSport, convey.ShouldEqual, "running")
			convey.So(cfg.SportWeights["swimming"], convey.ShouldEqual, 2.5)
			convey.So(cfg.SeedFixtures, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid fields", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = " " },
			"zero queue":         func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":       func(c *config.Config) { c.WorkerCount = 0 },
			"inverted latency":   func(c *config.Config) { c.VerifyLatencyMinMS, c.VerifyLatencyMaxMS = 50, 10 },
			"unknown sport":      func(c *config.Config) { c.DefaultSport = "curling" },
			"bad weight":         func(c *config.Config) { c.SportWeights["gym"] = 0 },
			"unknown weight key": func(c *config.Config) { c.SportWeights["quidditch"] = 1 },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.XPPerLevel, convey.ShouldEqual, 1_000)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("SPORTID_ADDR", ":8080")
			_ = os.Setenv("SPORTID_QUEUE_SIZE", "500")
			_ = os.Setenv("SPORTID_WORKER_COUNT", "3")
			_ = os.Setenv("SPORTID_DEFAULT_SPORT", "tennis")
			_ = os.Setenv("SPORTID_SEED_FIXTURES", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.DefaultSport, convey.ShouldEqual, "tennis")
				convey.So(cfg.SeedFixtures, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
worker_count: 6
xp_per_level: 500
sport_weights:
  tennis: 1.8
`)
			_ = os.Setenv("SPORTID_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file values apply and the weight map is replaced", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 6)
				convey.So(cfg.XPPerLevel, convey.ShouldEqual, 500)
				convey.So(cfg.SportWeights, convey.ShouldResemble, map[string]float64{"tennis": 1.8})
			})
		})

		convey.Convey("When env and file both set a key", func() {
			path := writeConfigFile(t, "addr: \":9090\"\n")
			_ = os.Setenv("SPORTID_CONFIG", path)
			_ = os.Setenv("SPORTID_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("SPORTID_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			_ = os.Setenv("SPORTID_VERIFY_LATENCY_MIN_MS", "90")
			_ = os.Setenv("SPORTID_VERIFY_LATENCY_MAX_MS", "10")

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects them", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
