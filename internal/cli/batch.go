package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/satyamitra/internal/logging"
	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/worker"
)

var (
	concurrency  int
	batchRole    string
	batchTimeout time.Duration
	batchOutput  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many claims from a file in parallel",
	Long: `Batch verifies one claim or URL per line concurrently.
Blank lines and lines starting with # are skipped. Every line is an
independent run with its own history entry.

Example:
  satyamitra batch claims.txt
  satyamitra batch claims.txt --concurrency 8 --output results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: pipeline.batch_concurrency)")
	batchCmd.Flags().StringVar(&batchRole, "role", "standard", "requester role for every line: standard, admin")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results as JSON to this path")
}

// batchLine is the JSON shape of one batch result
type batchLine struct {
	Claim     string          `json:"claim"`
	InputType model.InputType `json:"input_type"`
	Verdict   model.Verdict   `json:"verdict,omitempty"`
	Report    string          `json:"report,omitempty"`
	HistoryID uint            `json:"history_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)
	if concurrency <= 0 {
		concurrency = cfg.Pipeline.BatchConcurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  SatyaMitra Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(a.pipeline, concurrency, model.ParseRole(batchRole), "batch")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	lines := make([]batchLine, 0, len(results))
	failures := 0
	for _, r := range results {
		line := batchLine{Claim: r.Claim, InputType: r.InputType}
		if r.Error != nil {
			failures++
			line.Error = r.Error.Error()
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Claim, r.Error)
		} else {
			line.Verdict = r.Verdict
			line.Report = r.Result.Report
			line.HistoryID = r.Result.HistoryID
			fmt.Fprintf(os.Stderr, "✓ %-12s %s\n", r.Verdict, r.Claim)
		}
		lines = append(lines, line)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", len(results)-failures)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	if batchOutput == "" {
		return nil
	}
	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(batchOutput, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", batchOutput)
	return nil
}
