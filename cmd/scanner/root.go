package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/config"
	"solana-revival-scanner/internal/logging"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	envFile    string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "scanner",
		Short:         "Solana meme token revival scanner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "config.yaml", "YAML config file (optional)")
	f.StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before the config (optional)")
	f.StringVar(&g.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "log every pipeline phase")

	root.AddCommand(
		newServeCmd(g),
		newScanCmd(g),
		newScoreCmd(g),
		newCheckCmd(g),
		newSummaryCmd(g),
		newReportCmd(g),
	)
	return root
}

func (g *globals) load() error {
	if g.envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(g.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", g.envFile, err)
		}
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.verbose {
		cfg.Scan.Verbose = true
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	g.cfg, g.logger = cfg, logger
	return nil
}
