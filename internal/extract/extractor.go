// Package extract turns downloaded pages into ordered result objects by
// applying a declarative set of named rules against the parsed document.
package extract

import (
	"context"
	"fmt"
	"strings"

	"yelp-bookmarks/internal/components/assert"
	"yelp-bookmarks/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("yelp-bookmarks/extract")

const (
	report_extractor_run = "extractor.run"
)

// Fetcher downloads the body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Extractor struct {
	fetcher Fetcher
	tel     telemetry.API
}

type Option func(cfg *extractorCfg)

type extractorCfg struct {
	tel telemetry.API
}

func WithTelemetry(tel telemetry.API) Option {
	return func(cfg *extractorCfg) {
		cfg.tel = tel
	}
}

func New(fetcher Fetcher, opts ...Option) *Extractor {
	assert.NotNil(fetcher)

	var cfg extractorCfg
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}

	return &Extractor{
		fetcher: fetcher,
		tel:     telemetry.NewScopedAPI("extract", cfg.tel),
	}
}

// Run fetches url and applies rules to it.
//
// Errors from the fetcher and from the rules are returned wrapped and are
// never swallowed, the first failing rule aborts the whole extraction.
func Run[C any](ctx context.Context, e *Extractor, url string, rules RuleSet[C]) (Result, error) {
	ctx, span := tracer.Start(ctx, "extract.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", url),
		attribute.Int("fields", len(rules.Fields)),
	)

	if err := rules.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid rule set")
		return Result{}, fmt.Errorf("extract %s: %w", url, err)
	}

	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return Result{}, fmt.Errorf("extract %s: %w", url, err)
	}

	result, err := parseAndApply(body, rules)
	if err != nil {
		e.tel.ReportDebug(report_extractor_run, url, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to apply rules")
		return Result{}, fmt.Errorf("extract %s: %w", url, err)
	}
	return result, nil
}

// FromHTML parses html and applies rules to it.
func FromHTML[C any](html string, rules RuleSet[C]) (Result, error) {
	if err := rules.Validate(); err != nil {
		return Result{}, err
	}
	return parseAndApply(html, rules)
}

// Apply evaluates rules against an already parsed document.
func Apply[C any](doc *goquery.Document, rules RuleSet[C]) (Result, error) {
	if err := rules.Validate(); err != nil {
		return Result{}, err
	}
	return apply(doc, rules)
}

// parseAndApply expects rules to be validated already.
func parseAndApply[C any](html string, rules RuleSet[C]) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{}, &ParseError{Err: fmt.Errorf("parse html: %w", err)}
	}
	return apply(doc, rules)
}

func apply[C any](doc *goquery.Document, rules RuleSet[C]) (Result, error) {
	shared := new(C)

	if rules.Pre != nil {
		if err := rules.Pre(doc, shared); err != nil {
			return Result{}, fmt.Errorf("%s: %w", PreName, err)
		}
	}

	result := Result{fields: make([]field, 0, len(rules.Fields))}
	for _, f := range rules.Fields {
		value, err := f.Rule(doc, shared)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", f.Name, err)
		}
		result.set(f.Name, value)
	}
	return result, nil
}
