// Package cli implements the iqa command line tool.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/factory"
	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/observer"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	preset     string
	rulesFile  string
	logLevel   string
	workers    int

	cfg *config.Config
}

// NewRootCmd builds the iqa command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "iqa",
		Short: "No-reference image quality assessment",
		Long: `iqa scores images for blur, noise, contrast, exposure and colour problems
without a reference image. Scores are penalty sums: lower is better.

Images are rated Good, Moderate or Bad using the cutoffs of the selected
preset or rules file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return g.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "YAML config file (default $IQA_CONFIG)")
	flags.StringVarP(&g.preset, "preset", "p", "", "scoring preset: optimized, smart, fast, ultrafast")
	flags.StringVarP(&g.rulesFile, "rules", "r", "", "YAML rules file applied on top of the preset")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.IntVarP(&g.workers, "workers", "w", 0, "parallel workers for batches (0 or 1 runs sequentially)")

	cmd.AddCommand(newAnalyzeCmd(g))
	cmd.AddCommand(newBatchCmd(g))
	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newPresetsCmd(g))

	return cmd
}

func (g *globals) load(cmd *cobra.Command) error {
	path := g.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, err := config.LoadFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		cfg.Preset = g.preset
	}
	if flags.Changed("rules") {
		cfg.RulesFile = g.rulesFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("workers") {
		cfg.Workers = g.workers
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", cfg.Workers)
	}

	// Logs go to stderr so reports on stdout stay clean.
	logger.SetOutput(os.Stderr)
	logger.Configure(cfg.LogLevel)

	g.cfg = cfg
	return nil
}

// engine builds an engine that logs pipeline events.
func (g *globals) engine() (*analyzer.Engine, error) {
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	return factory.NewAnalyzerFactory(g.cfg).CreateAnalyzer(analyzer.WithTracer(events))
}
