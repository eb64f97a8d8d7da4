// Package cmd defines and implements the CLI commands for the creatorscout
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/app"
	"github.com/influenceops/creatorscout/internal/config"
	"github.com/influenceops/creatorscout/internal/discovery"
	"github.com/influenceops/creatorscout/internal/discovery/instagram"
	"github.com/influenceops/creatorscout/internal/ingest"
	"github.com/influenceops/creatorscout/internal/recommend"
	"github.com/influenceops/creatorscout/internal/store"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application surface the commands use. It allows injecting
// a mock app during tests.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetStore() store.ProfileStore
	GetSource() discovery.Source
	GetHashtag() *instagram.Scraper
	GetRunner() *ingest.Runner
	GetPipeline() *recommend.Pipeline
}

// newApp is the application factory. It is a variable so tests can replace
// it with a mock factory.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	return app.NewApp(ctx, cfgFile)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creatorscout",
		Short: "Creator discovery and recommendation service for campaign briefs.",
		Long: `creatorscout matches free-text campaign briefs to creator profiles.
It serves a recommendation API backed by a profile store, discovers fresh
channels through the YouTube Data API when local supply runs thin, and ships
batch tooling for keyword ingestion, hashtag scraping, and vertical seeding.`,

		// Build the application after flags are parsed and before the
		// subcommand's RunE, then inject it into the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml lookup via SCOUT_* env)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newHashtagCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
