package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/mathblocks/internal/model"
)

// Version is stamped at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mathblocks",
	Short: "Mathblocks - interactive block suggestions for math lessons",
	Long: `Mathblocks reads a lesson page (a local HTML file or a URL) and looks
for mathematical content: equations it can graph and word problems it can
walk through step by step.

For each match it proposes an interactive block with a fixed confidence.
Suggestions at or above the selection threshold are preselected; nothing
is applied until you ask for it.

Suggestions are heuristic. Review each block before publishing.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as batch and serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mathblocks %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.mathblocks/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig layers defaults, the config file and MATHBLOCKS_* variables
func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Seeding viper with the defaults lets AutomaticEnv resolve every key.
	viper.SetConfigType("yaml")
	if data, err := yaml.Marshal(model.DefaultConfig()); err == nil {
		_ = viper.MergeConfig(bytes.NewReader(data))
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".mathblocks"))
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("MATHBLOCKS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// API keys never live in the config file.
	_ = viper.BindEnv("llm.api_key", "MATHBLOCKS_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("llm.base_url", "MATHBLOCKS_LLM_BASE_URL", "OLLAMA_BASE_URL")
	// Omitted from the seeded defaults when empty.
	_ = viper.BindEnv("cache.dir")
	_ = viper.BindEnv("http.no_proxy")

	if err := viper.MergeInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration. Command flags are
// applied on top by each command.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
