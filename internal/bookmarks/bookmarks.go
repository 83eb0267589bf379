// Package bookmarks resolves every business a user has bookmarked into a
// record, using the api where it has data and the business page where it
// does not.
package bookmarks

import (
	"context"
	"errors"
	"fmt"

	"yelp-bookmarks/internal/components/assert"
	"yelp-bookmarks/internal/components/telemetry"
	"yelp-bookmarks/internal/extract"
	"yelp-bookmarks/internal/yelpapi"
	"yelp-bookmarks/internal/yelpsite"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("yelp-bookmarks/bookmarks")
var meter = otel.Meter("yelp-bookmarks/bookmarks")

const DefaultConcurrency = 10

const (
	report_scraper_init          = "scraper.init"
	report_scraper_run           = "scraper.run"
	report_scraper_resolve       = "scraper.resolve"
	report_scraper_page_fallback = "scraper.page-fallback"
)

// API is the part of the yelp api the scraper needs, *yelpapi.Client
// implements it.
type API interface {
	Authenticate(ctx context.Context, creds yelpapi.Credentials) (yelpapi.Token, error)
	LookupBusiness(ctx context.Context, id string, token yelpapi.Token) (yelpapi.Business, error)
}

// ProgressFunc is called with the id of every business right before it is
// resolved. It may be called from several goroutines at once.
type ProgressFunc func(ctx context.Context, bizID string)

type Scraper struct {
	api         API
	pages       *extract.Extractor
	siteBase    string
	concurrency int
	progress    ProgressFunc
	tel         telemetry.API
	records     metric.Int64Counter
}

type Option func(cfg *scraperCfg)

type scraperCfg struct {
	siteBase    string
	concurrency int
	progress    ProgressFunc
	tel         telemetry.API
}

// WithConcurrency caps the number of businesses resolved at once, values
// below 1 keep the default.
func WithConcurrency(n int) Option {
	return func(cfg *scraperCfg) {
		if n > 0 {
			cfg.concurrency = n
		}
	}
}

func WithProgress(progress ProgressFunc) Option {
	return func(cfg *scraperCfg) {
		cfg.progress = progress
	}
}

func WithSiteBaseURL(siteBase string) Option {
	return func(cfg *scraperCfg) {
		cfg.siteBase = siteBase
	}
}

func WithTelemetry(tel telemetry.API) Option {
	return func(cfg *scraperCfg) {
		cfg.tel = tel
	}
}

func New(api API, pages *extract.Extractor, opts ...Option) *Scraper {
	assert.NotNil(api)
	assert.NotNil(pages)

	cfg := scraperCfg{
		siteBase:    yelpsite.DefaultBaseURL,
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(&cfg)
	}
	assert.NotEmptyStr(cfg.siteBase)
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}
	tel := telemetry.NewScopedAPI("bookmarks", cfg.tel)

	records, err := meter.Int64Counter(
		"bookmarks.records",
		metric.WithDescription("Resolved bookmark records by source."),
	)
	if err != nil {
		tel.ReportBroken(report_scraper_init, err)
		records = noop.Int64Counter{}
	}

	return &Scraper{
		api:         api,
		pages:       pages,
		siteBase:    cfg.siteBase,
		concurrency: cfg.concurrency,
		progress:    cfg.progress,
		tel:         tel,
		records:     records,
	}
}

// Run resolves every bookmark of userID. The records are in the order the
// bookmarks are listed across the bookmark pages. Any failure other than the
// api lacking data on a business aborts the whole run.
func (s *Scraper) Run(ctx context.Context, creds yelpapi.Credentials, userID string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "Scraper.Run")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	token, err := s.api.Authenticate(ctx, creds)
	if err != nil {
		s.tel.ReportBroken(report_scraper_run, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to authenticate")
		return nil, err
	}

	links, err := s.Links(ctx, userID)
	if err != nil {
		s.tel.ReportBroken(report_scraper_run, err, userID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list bookmarks")
		return nil, err
	}

	records, err := s.resolveAll(ctx, token, links)
	if err != nil {
		s.tel.ReportBroken(report_scraper_run, err, userID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve bookmarks")
		return nil, err
	}

	var fromAPI, fromPage int
	for _, r := range records {
		if r.Source == SourceAPI {
			fromAPI++
			continue
		}
		fromPage++
	}
	span.SetAttributes(
		attribute.Int("links", len(links)),
		attribute.Int("records.api", fromAPI),
		attribute.Int("records.page", fromPage),
	)
	// debug only, stderr may be the result sink
	s.tel.ReportDebug("resolved bookmarks", userID, len(links), fromAPI, fromPage)

	return records, nil
}

// Links lists the business links of every bookmark page of userID, in page
// order. All pages are requested at once.
func (s *Scraper) Links(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Scraper.Links")
	defer span.End()

	first := yelpsite.BookmarksURL(s.siteBase, userID)
	pageCount, err := yelpsite.PageCount(ctx, s.pages, first)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read page count")
		return nil, fmt.Errorf("page count: %w", err)
	}
	span.SetAttributes(attribute.Int("pages", pageCount))
	s.tel.ReportDebug("discovered bookmark pages", userID, pageCount)

	pageURLs := yelpsite.PageURLs(first, pageCount)
	perPage := make([][]string, len(pageURLs))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, pageURL := range pageURLs {
		group.Go(func() error {
			links, err := yelpsite.BusinessLinks(groupCtx, s.pages, pageURL)
			if err != nil {
				return fmt.Errorf("bookmark page %d: %w", i+1, err)
			}
			perPage[i] = links
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read bookmark page")
		return nil, err
	}

	var links []string
	for _, page := range perPage {
		links = append(links, page...)
	}
	return links, nil
}

func (s *Scraper) resolveAll(ctx context.Context, token yelpapi.Token, links []string) ([]Record, error) {
	records := make([]Record, len(links))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, link := range links {
		group.Go(func() error {
			record, err := s.Resolve(groupCtx, token, link)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Resolve turns a single business link into a record. The business page is
// only consulted when the api reports that it has no details on the
// business.
func (s *Scraper) Resolve(ctx context.Context, token yelpapi.Token, link string) (Record, error) {
	id := yelpsite.BusinessID(link)

	ctx, span := tracer.Start(ctx, "Scraper.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("business_id", id))

	if s.progress != nil {
		s.progress(ctx, id)
	}

	business, err := s.api.LookupBusiness(ctx, id, token)
	if err == nil {
		s.count(ctx, SourceAPI)
		return Record{Source: SourceAPI, BusinessID: id, Business: &business}, nil
	}

	var apiErr *yelpapi.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsCoverageGap() {
		s.tel.ReportBroken(report_scraper_resolve, err, id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to lookup business")
		return Record{}, err
	}

	s.tel.ReportDebug("api has no details, using business page", id)
	bizURL := yelpsite.BusinessURL(s.siteBase, link)
	result, err := yelpsite.ExtractBusiness(ctx, s.pages, bizURL)
	if err != nil {
		s.tel.ReportBroken(report_scraper_page_fallback, err, id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract business page")
		return Record{}, fmt.Errorf("business page %s: %w", id, err)
	}

	s.count(ctx, SourcePage)
	return Record{Source: SourcePage, BusinessID: id, Page: &result}, nil
}

func (s *Scraper) count(ctx context.Context, source Source) {
	s.records.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(source))))
}
