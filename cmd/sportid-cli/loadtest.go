package main

import (
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/sportid/internal/loadtest"
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Drive a running service with generated activity submissions",
	Long: `Loadtest connects a wallet per generated athlete, sends generated
screenshot texts through /activities/extract, submits the results
concurrently, replays some submissions to check idempotency, waits for
processing and verifies the leaderboard against per-athlete ranks.`,
	RunE: runLoadtest,
}

func init() {
	f := loadtestCmd.Flags()
	f.String("url", "http://localhost:9080", "base URL of the service")
	f.Int("athletes", loadtest.DefaultAthletes, "number of generated athletes")
	f.Int("per-athlete", loadtest.DefaultPerAthlete, "submissions per athlete")
	f.Int("duplicates", 0, "submissions replayed with their original IDs")
	f.Int("top", loadtest.DefaultTopN, "leaderboard entries to fetch and verify")
	f.Int("workers", runtime.NumCPU()*2, "concurrent HTTP workers")
	f.Duration("timeout", loadtest.DefaultTimeout, "HTTP request timeout")
	f.Duration("wait", loadtest.DefaultWait, "maximum time to wait for processing")
	f.Uint64("seed", 0, "generator seed, 0 for time based")
	f.String("output", "", "write generated submissions to this JSON file")
	f.Bool("verbose", false, "log individual request failures")

	rootCmd.AddCommand(loadtestCmd)
}

func runLoadtest(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	var cfg loadtest.Config
	cfg.BaseURL, _ = f.GetString("url")
	cfg.Athletes, _ = f.GetInt("athletes")
	cfg.PerAthlete, _ = f.GetInt("per-athlete")
	cfg.Duplicates, _ = f.GetInt("duplicates")
	cfg.TopN, _ = f.GetInt("top")
	cfg.Workers, _ = f.GetInt("workers")
	cfg.Timeout, _ = f.GetDuration("timeout")
	cfg.Wait, _ = f.GetDuration("wait")
	cfg.Seed, _ = f.GetUint64("seed")
	cfg.OutputFile, _ = f.GetString("output")
	cfg.Verbose, _ = f.GetBool("verbose")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := loadtest.Run(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(),
		"submitted=%d accepted=%d duplicate=%d backpressure=%d failed=%d processed=%d duration=%s\n",
		stats.Submitted, stats.Accepted, stats.Duplicate, stats.Backpressure, stats.Failed, stats.Processed, stats.Duration)
	return err
}
