package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/discovery"
)

// newIngestCmd creates the 'ingest' subcommand, which discovers YouTube
// channels for a keyword and loads them into the profile store.
func newIngestCmd() *cobra.Command {
	var (
		keyword string
		max     int
		method  string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Discovers YouTube channels for a keyword and stores them",
		Long: `Runs one discovery pass against the YouTube Data API for the given
keyword and inserts the resulting channel profiles. Profiles already present
are left untouched. With --dry-run the discovered channels are printed and
nothing is written.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			mode, err := parseMode(method)
			if err != nil {
				return err
			}

			if dryRun {
				profiles, err := appInstance.GetSource().Discover(cmd.Context(), keyword, max, mode)
				if err != nil {
					return fmt.Errorf("discover %q: %w", keyword, err)
				}
				for _, p := range profiles {
					cmd.Printf("%s\t%s\t%d\n", p.ID, p.Title, p.Subscribers())
				}
				cmd.Printf("dry run: %d channels discovered, none stored\n", len(profiles))
				return nil
			}

			inserted, err := appInstance.GetRunner().FromYouTube(cmd.Context(), appInstance.GetSource(), keyword, max, mode)
			if err != nil {
				return err
			}
			appInstance.GetLogger().Info("keyword ingest finished",
				zap.String("keyword", keyword),
				zap.String("method", method),
				zap.Int("inserted", inserted),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "search keyword to discover channels for")
	cmd.Flags().IntVar(&max, "max", 30, "maximum channels to discover")
	cmd.Flags().StringVar(&method, "method", string(discovery.ModeByName), "discovery method: byName or byRelevance")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print discovered channels without storing them")
	_ = cmd.MarkFlagRequired("keyword")

	return cmd
}

func parseMode(method string) (discovery.Mode, error) {
	switch discovery.Mode(method) {
	case discovery.ModeByName:
		return discovery.ModeByName, nil
	case discovery.ModeByRelevance:
		return discovery.ModeByRelevance, nil
	default:
		return "", fmt.Errorf("unknown discovery method %q (want byName or byRelevance)", method)
	}
}
