package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/sportid/internal/domain/extract"
	"github.com/okian/sportid/internal/domain/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract activity fields from screenshot text",
	Long: `Extract reads recognized screenshot text from a file, or stdin when no
file is given, and prints the extracted activity as JSON. Fields the text
does not contain are omitted; a missing date is filled with the current
time and flagged as inferred.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("sport", string(model.SportRunning), "sport type assigned to the activity")
	extractCmd.Flags().Float64("confidence", 0, "recognition confidence, 0-100")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	sportFlag, _ := cmd.Flags().GetString("sport")
	sport, err := model.ParseSportType(sportFlag)
	if err != nil {
		return err
	}
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	data := extract.Extract(string(text), sport, confidence)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
