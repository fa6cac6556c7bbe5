package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mathblocks/internal/server"
	"github.com/ppiankov/mathblocks/internal/validate"
)

var (
	serveAddr string
	serveLLM  llmFlags
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyze and apply API over HTTP",
	Long: `Serve exposes the engine to a web editor:

  GET  /healthz
  GET  /v1/block-types
  POST /v1/analyze   {"html": "..."}
  POST /v1/apply     {"html": "...", "selected": ["sg-001"]}

Example:
  mathblocks serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveLLM.register(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := validThreshold(cfg.Analysis.SelectionThreshold); err != nil {
		return err
	}
	if err := serveLLM.apply(cfg); err != nil {
		return err
	}

	logger := slog.Default()
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, p, validate.DefaultRegistry(), logger)
	return srv.ListenAndServe(cmd.Context())
}
