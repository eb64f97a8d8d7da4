package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newHashtagCmd creates the 'hashtag' subcommand, which scrapes an Instagram
// hashtag page and stores the posters as metric-less profiles.
func newHashtagCmd() *cobra.Command {
	var (
		tag    string
		max    int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "hashtag",
		Short: "Scrapes an Instagram hashtag and stores the posters",
		Long: `Fetches the public page for a hashtag and inserts one profile per
unique poster. These profiles carry no subscriber metrics, so they rank last.
The scrape is best-effort and fails when the page markup changes.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			if dryRun {
				profiles, err := appInstance.GetHashtag().ProfilesByHashtag(cmd.Context(), tag, max)
				if err != nil {
					return fmt.Errorf("scrape hashtag %q: %w", tag, err)
				}
				for _, p := range profiles {
					cmd.Printf("%s\t%s\n", p.ID, p.Title)
				}
				cmd.Printf("dry run: %d posters found, none stored\n", len(profiles))
				return nil
			}

			inserted, err := appInstance.GetRunner().FromHashtag(cmd.Context(), appInstance.GetHashtag(), tag, max)
			if err != nil {
				return err
			}
			appInstance.GetLogger().Info("hashtag ingest finished",
				zap.String("tag", tag),
				zap.Int("inserted", inserted),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "hashtag to scrape, without the leading #")
	cmd.Flags().IntVar(&max, "max", 30, "maximum posters to store")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print posters without storing them")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}
