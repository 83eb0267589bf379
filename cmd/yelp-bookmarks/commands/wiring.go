package commands

import (
	"context"
	"fmt"
	"log/slog"

	"yelp-bookmarks/internal/bookmarks"
	"yelp-bookmarks/internal/components/telemetry"
	"yelp-bookmarks/internal/extract"
	"yelp-bookmarks/internal/fetch"
	"yelp-bookmarks/internal/yelpapi"
	"yelp-bookmarks/lib/restyutil"
)

func httpOptions(cfg Config, name string, tel telemetry.API) ([]fetch.Option, error) {
	opts := []fetch.Option{
		fetch.WithTelemetry(tel),
		fetch.WithTracerName(fmt.Sprintf("yelp-bookmarks/%s/http", name)),
	}
	if cfg.DumpHTTPDir != "" {
		out, err := restyutil.NewFilesystemOutput(cfg.DumpHTTPDir)
		if err != nil {
			return nil, fmt.Errorf("http dump directory: %w", err)
		}
		opts = append(opts, fetch.WithDump(name, out))
	}
	return opts, nil
}

func newAPIClient(cfg Config) (*yelpapi.Client, error) {
	tel := telemetry.SlogAPI{}
	opts, err := httpOptions(cfg, "api", tel)
	if err != nil {
		return nil, err
	}
	return yelpapi.NewClient(
		fetch.NewClient(opts...),
		yelpapi.WithBaseURL(cfg.APIBaseURL),
		yelpapi.WithTelemetry(tel),
	), nil
}

// newScraper wires the api client and the page extractor together, the
// website is fetched through its own client since it sits behind
// cloudflare and the api does not.
func newScraper(cfg Config, api bookmarks.API) (*bookmarks.Scraper, error) {
	tel := telemetry.SlogAPI{}

	opts, err := httpOptions(cfg, "site", tel)
	if err != nil {
		return nil, err
	}
	siteHTTP := fetch.NewClient(append(opts, fetch.WithCloudflareBypass())...)
	pages := extract.New(siteHTTP, extract.WithTelemetry(tel))

	scraperOpts := []bookmarks.Option{
		bookmarks.WithSiteBaseURL(cfg.SiteBaseURL),
		bookmarks.WithConcurrency(cfg.Concurrency),
		bookmarks.WithTelemetry(tel),
	}
	if cfg.Verbose {
		scraperOpts = append(scraperOpts, bookmarks.WithProgress(func(ctx context.Context, bizID string) {
			slog.InfoContext(ctx, "resolving business", "id", bizID)
		}))
	}
	return bookmarks.New(api, pages, scraperOpts...), nil
}
