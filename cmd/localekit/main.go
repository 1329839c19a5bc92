package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/localekit/config"
	"github.com/kdsmith18542/localekit/logger"
	"github.com/kdsmith18542/localekit/observability"
)

var exitFunc = os.Exit

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitFunc(1)
	}
}

// app carries the configuration loaded before any subcommand runs.
type app struct {
	configFile string
	cfg        *config.Config
}

// NewRootCmd builds the localekit command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "localekit",
		Short:         "Localekit CLI - inspect, lint and preview localization resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if err := observability.Init(cfg.Observability); err != nil {
				return fmt.Errorf("failed to initialize observability: %w", err)
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to a TOML or YAML config file")

	rootCmd.AddCommand(
		a.languagesCmd(),
		a.resolveCmd(),
		a.lintCmd(),
		a.findMissingCmd(),
		a.watchCmd(),
	)
	return rootCmd
}
