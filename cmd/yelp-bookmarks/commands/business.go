package commands

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"yelp-bookmarks/internal/components/telemetry"
	"yelp-bookmarks/internal/output"

	"github.com/spf13/cobra"
)

func newBusinessCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "business <business id | /biz/ link | business url>",
		Short: "Resolves a single business the same way scrape resolves bookmarks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			telemetry.InitSlog(stderr, cfg.Verbose)

			link, err := businessLink(args[0])
			if err != nil {
				return err
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
			token, err := api.Authenticate(cmd.Context(), creds)
			if err != nil {
				return err
			}
			record, err := scraper.Resolve(cmd.Context(), token, link)
			if err != nil {
				return err
			}
			return output.Write(cfg.Output, record, stdout, stderr)
		},
	}
}

// businessLink normalizes the accepted forms of a business reference into a
// /biz/ link.
func businessLink(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		parsed, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("invalid business url: %w", err)
		}
		ref = parsed.Path
	}
	if strings.HasPrefix(ref, "/biz/") {
		ref = strings.TrimPrefix(ref, "/biz/")
	}
	ref = strings.Trim(ref, "/")
	if ref == "" {
		return "", fmt.Errorf("empty business reference")
	}
	return "/biz/" + ref, nil
}
