package commands

import (
	"errors"
	"io"

	"yelp-bookmarks/internal/components/telemetry"
	"yelp-bookmarks/internal/output"

	"github.com/spf13/cobra"
)

func newScrapeCmd(stdout, stderr io.Writer) *cobra.Command {
	scrapeCmd := &cobra.Command{
		Use:   "scrape --user-id <id> [--output stdout|stderr|<path>]",
		Short: "Resolves every bookmark of a user and writes them as a json array.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			telemetry.InitSlog(stderr, cfg.Verbose)

			if cfg.UserID == "" {
				return errors.New("missing user id, pass --user-id or set user_id in the config")
			}
			creds, err := cfg.credentials()
			if err != nil {
				return err
			}

			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}
			scraper, err := newScraper(cfg, api)
			if err != nil {
				return err
			}
			records, err := scraper.Run(cmd.Context(), creds, cfg.UserID)
			if err != nil {
				return err
			}
			return output.Write(cfg.Output, records, stdout, stderr)
		},
	}
	scrapeCmd.Flags().String("user-id", "", "The id of the user whose bookmarks are exported.")
	return scrapeCmd
}
