package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mathblocks/internal/pipeline"
)

var (
	outJSON      string
	outMD        string
	outHTML      string
	threshold    float64
	timeout      time.Duration
	noFooter     bool
	analyzeFetch fetchFlags
	analyzeLLM   llmFlags
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url>",
	Short: "Suggest interactive blocks for one lesson",
	Long: `Analyze reads a lesson and reports interactive block suggestions:
- equations that can be explored on a graph
- word problems with worked steps

Suggestions are ranked by confidence; those at or above the threshold are
preselected.

Example:
  mathblocks analyze lesson.html
  mathblocks analyze https://example.com/algebra --json report.json --md report.md
  mathblocks analyze lesson.html --threshold 0.85 --hints --llm-provider ollama --llm-model llama3`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	analyzeCmd.Flags().StringVar(&outHTML, "html", "", "output HTML path")
	analyzeCmd.Flags().Float64Var(&threshold, "threshold", 0, "selection threshold (default from config, 0.8)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	analyzeFetch.register(analyzeCmd.Flags())
	analyzeLLM.register(analyzeCmd.Flags())
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	source := args[0]
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
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	analyzeFetch.apply(cfg)
	if err := analyzeLLM.apply(cfg); err != nil {
		return err
	}

	logger := slog.Default()
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", source)
	}

	report, err := p.Run(ctx, source)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, cfg.Output.SampleSize)

	if outJSON == "" && outMD == "" && outHTML == "" {
		renderer.RenderSummary(os.Stdout, report)
		return nil
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
	}
	if outHTML != "" {
		if err := renderer.RenderHTML(report, outHTML); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ HTML report: %s\n", outHTML)
	}

	return nil
}
