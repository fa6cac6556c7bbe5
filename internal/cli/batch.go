package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mathblocks/internal/pipeline"
	"github.com/ppiankov/mathblocks/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchFetch   fetchFlags
	batchLLM     llmFlags
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many lessons from a list file in parallel",
	Long: `Batch analyzes every file path or URL listed in a file (one per line,
# comments allowed) and writes a JSON and a Markdown report for each.

Example:
  mathblocks batch lessons.txt
  mathblocks batch lessons.txt --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./mathblocks-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	batchFetch.register(batchCmd.Flags())
	batchLLM.register(batchCmd.Flags())
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = runtime.NumCPU()
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	batchFetch.apply(cfg)
	if err := batchLLM.apply(cfg); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  Hints:        %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := buildPipeline(cfg, slog.Default())
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, cfg.Output.SampleSize)

	var succeeded, failed int
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	processor.OnResult = func(res *worker.AnalyzeResult) {
		if res.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Source, res.Error)
			return
		}

		base := filepath.Join(outputDir, reportName(res.Source))
		if err := renderer.RenderJSON(res.Report, base+".json"); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", res.Source, err)
			return
		}
		if err := renderer.RenderMarkdown(res.Report, base+".md"); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", res.Source, err)
			return
		}

		succeeded++
		fmt.Fprintf(os.Stderr, "✓ %s (%d suggestions, %d preselected)\n",
			res.Source, res.Report.Summary.Total, len(res.Report.Summary.Selected))
	}

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	// Sources never reached before the timeout have no callback.
	skipped := len(results) - succeeded - failed

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d sources\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", succeeded)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failed+skipped)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if succeeded == 0 && len(results) > 0 {
		return fmt.Errorf("no source could be analyzed")
	}
	return nil
}

// reportName derives a readable, collision-free file stem from a source
func reportName(source string) string {
	base := filepath.Base(strings.TrimRight(source, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if len(name) > 60 {
		name = name[:60]
	}
	if name == "" {
		name = "lesson"
	}

	sum := sha256.Sum256([]byte(source))
	return name + "-" + hex.EncodeToString(sum[:4])
}
