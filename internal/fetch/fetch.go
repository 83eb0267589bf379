// Package fetch is the HTTP transport shared by the yelp api client and
// the page extractor.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"yelp-bookmarks/internal/components/telemetry"
	"yelp-bookmarks/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_fetch = "client.fetch"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// TransportError is returned when a request could not be completed, or when
// a page request came back with a non-2xx status.
type TransportError struct {
	Method string
	URL    string
	// Status is 0 when no response was received.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Request is a structured request, Form is sent url-encoded when non-empty.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Form   map[string]string
}

type Response struct {
	Status int
	Body   string
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

type Option func(cfg *clientCfg)

type clientCfg struct {
	tel              telemetry.API
	timeout          time.Duration
	userAgent        string
	cloudflareBypass bool
	tracerName       string
	transport        http.RoundTripper
	dumpPrefix       string
	dump             restyutil.Output
}

func WithTelemetry(tel telemetry.API) Option {
	return func(cfg *clientCfg) {
		cfg.tel = tel
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(cfg *clientCfg) {
		cfg.timeout = timeout
	}
}

func WithUserAgent(userAgent string) Option {
	return func(cfg *clientCfg) {
		cfg.userAgent = userAgent
	}
}

// WithCloudflareBypass wraps the transport so that requests look like they
// come from a regular browser, the website sits behind cloudflare.
func WithCloudflareBypass() Option {
	return func(cfg *clientCfg) {
		cfg.cloudflareBypass = true
	}
}

// WithTracerName sets the otel tracer name used for request spans.
func WithTracerName(name string) Option {
	return func(cfg *clientCfg) {
		cfg.tracerName = name
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(cfg *clientCfg) {
		cfg.transport = transport
	}
}

// WithDump keeps a rendered copy of every exchange in out, ids are
// prefixed with prefix.
func WithDump(prefix string, out restyutil.Output) Option {
	return func(cfg *clientCfg) {
		cfg.dumpPrefix = prefix
		cfg.dump = out
	}
}

func NewClient(opts ...Option) *Client {
	cfg := clientCfg{
		timeout:    time.Second * 30,
		userAgent:  defaultUserAgent,
		tracerName: "yelp-bookmarks/fetch",
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}
	tel := telemetry.NewScopedAPI("fetch", cfg.tel)

	httpClient := resty.New()
	if cfg.transport != nil {
		httpClient.SetTransport(cfg.transport)
	}
	if cfg.cloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", cfg.userAgent)
	httpClient.SetTimeout(cfg.timeout)

	telemetry.InstrumentResty(httpClient, cfg.tracerName, tel)
	if cfg.dump != nil {
		restyutil.Dump(httpClient, cfg.dumpPrefix, cfg.dump)
	}

	return &Client{http: httpClient, tel: tel}
}

// Do performs the request and returns whatever the server answered with,
// the status is not interpreted.
func (c *Client) Do(ctx context.Context, r Request) (Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req := c.http.R().SetContext(ctx)
	for k, v := range r.Header {
		req.SetHeader(k, v)
	}
	if len(r.Form) > 0 {
		req.SetFormData(r.Form)
	}

	res, err := req.Execute(method, r.URL)
	if err != nil {
		return Response{}, &TransportError{
			Method: method,
			URL:    r.URL,
			Err:    err,
		}
	}

	return Response{
		Status: res.StatusCode(),
		Body:   string(res.Body()),
	}, nil
}

// Fetch downloads a page, a non-2xx status is a TransportError.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	res, err := c.Do(ctx, Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return "", err
	}
	if res.Status < 200 || res.Status >= 300 {
		c.tel.ReportWarning(report_client_fetch, url, res.Status)
		return "", &TransportError{
			Method: http.MethodGet,
			URL:    url,
			Status: res.Status,
			Err:    fmt.Errorf("status %d", res.Status),
		}
	}
	return res.Body, nil
}
