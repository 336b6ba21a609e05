// Package cmd defines and implements the CLI commands for the wikiharvest
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/app"
	"github.com/wikiharvest/wikiharvest/internal/config"
	"github.com/wikiharvest/wikiharvest/internal/logging"
)

var (
	cfgFile     string
	logLevel    string
	concurrency int
)

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. It is a variable so tests can swap in
// a factory that wires in-memory providers and test servers.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikiharvest",
		Short: "Harvest Wikipedia category trees into ranked datasets.",
		Long: `wikiharvest walks a Wikipedia category tree, attaches a year of
pageview counts and editorial metadata to every article it finds, and joins
the results into a ranked dataset ready for reporting or for publishing as
a wikitext table.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Runs after flag parsing and before the subcommand: load config,
		// apply flag overrides, build the service container, and stash it
		// in the context for subcommands.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if concurrency > 0 {
				cfg.Harvest.Concurrency = concurrency
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Config{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
				File:        cfg.Logging.File,
				MaxSizeMB:   cfg.Logging.MaxSizeMB,
				MaxBackups:  cfg.Logging.MaxBackups,
				MaxAgeDays:  cfg.Logging.MaxAgeDays,
				Compress:    cfg.Logging.Compress,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			application, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, application))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if application, ok := cmd.Context().Value(appKey).(*app.App); ok && application != nil {
				application.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default wikiharvest.yaml in the working directory)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override logging.level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0,
		"override harvest.concurrency")

	cmd.AddCommand(
		newCrawlCmd(),
		newViewsCmd(),
		newMetaCmd(),
		newEnrichCmd(),
		newWikitableCmd(),
		newReportCmd(),
		newVersionCmd(),
	)
	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	application, ok := ctx.Value(appKey).(*app.App)
	if !ok || application == nil {
		return nil, errors.New("application services not initialized")
	}
	return application, nil
}

// Execute runs the root command under the given base context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
