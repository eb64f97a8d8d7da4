package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/ingest"
)

// newSeedCmd creates the 'seed' subcommand, which bootstraps the store from
// a verticals YAML file.
func newSeedCmd() *cobra.Command {
	var (
		file       string
		perSeedMax int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bootstraps the store from a verticals file",
		Long: `Reads a YAML file mapping vertical names to seed search terms and
runs both discovery methods over every term. Failed seeds are logged and
skipped so one dead vertical does not abort the run.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			cfg, err := ingest.LoadSeedConfig(file)
			if err != nil {
				return fmt.Errorf("load verticals: %w", err)
			}

			total := appInstance.GetRunner().SeedVerticals(cmd.Context(), appInstance.GetSource(), cfg, perSeedMax)
			appInstance.GetLogger().Info("seeding finished",
				zap.Int("verticals", len(cfg.Verticals)),
				zap.Int("inserted", total),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "verticals.yaml", "verticals YAML file")
	cmd.Flags().IntVar(&perSeedMax, "per-seed-max", 20, "maximum channels per seed term and method")

	return cmd
}
