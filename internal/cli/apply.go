package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mathblocks/internal/blocks"
	"github.com/ppiankov/mathblocks/internal/pipeline"
	"github.com/ppiankov/mathblocks/internal/validate"
)

var (
	selectIDs  []string
	outBlocks  string
	applyFetch fetchFlags
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply <file|url>",
	Short: "Build interactive blocks from selected suggestions",
	Long: `Apply analyzes a lesson and builds a block for each selected suggestion.
Without --select the preselected suggestions are used.

An unknown id or a suggestion with missing parameters fails the whole
command; no partial output is written.

Example:
  mathblocks apply lesson.html
  mathblocks apply lesson.html --select sg-001,sg-003 --out blocks.json`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringSliceVar(&selectIDs, "select", nil, "suggestion ids to apply (default: preselected)")
	applyCmd.Flags().StringVar(&outBlocks, "out", "", "output path for blocks JSON (default: stdout)")
	applyCmd.Flags().Float64Var(&threshold, "threshold", 0, "selection threshold used when --select is absent")
	applyCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")

	applyFetch.register(applyCmd.Flags())
}

func runApply(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Analysis.SelectionThreshold = threshold
	}
	if err := validThreshold(cfg.Analysis.SelectionThreshold); err != nil {
		return err
	}
	applyFetch.apply(cfg)
	cfg.LLM.Provider = ""

	p, err := buildPipeline(cfg, slog.Default())
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, args[0])
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	ids := selectIDs
	if len(ids) == 0 {
		ids = report.Summary.Selected
	}

	built, err := blocks.NewApplier(validate.DefaultRegistry()).Apply(report.Suggestions, ids)
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	out := os.Stdout
	if outBlocks != "" {
		var f *os.File
		f, err = os.Create(outBlocks)
		if err != nil {
			return fmt.Errorf("create %s: %w", outBlocks, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", outBlocks, closeErr)
			}
		}()
		out = f
	}

	if err := pipeline.WriteJSON(out, built); err != nil {
		return fmt.Errorf("write blocks: %w", err)
	}
	if outBlocks != "" {
		fmt.Fprintf(os.Stderr, "✓ %d blocks written to %s\n", len(built), outBlocks)
	}
	return nil
}
