// Package yelpapi is a thin client over the parts of the yelp fusion api
// needed to resolve bookmarks: the client credentials token exchange and the
// business details endpoint.
package yelpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"yelp-bookmarks/internal/components/assert"
	"yelp-bookmarks/internal/components/telemetry"
	"yelp-bookmarks/internal/fetch"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("yelp-bookmarks/yelpapi")

const DefaultBaseURL = "https://api.yelp.com"

const (
	report_client_authenticate    = "client.authenticate"
	report_client_lookup_business = "client.lookup-business"
)

// Doer performs a structured request, *fetch.Client implements it.
type Doer interface {
	Do(ctx context.Context, r fetch.Request) (fetch.Response, error)
}

type Client struct {
	http    Doer
	baseURL string
	tel     telemetry.API
}

type ClientOption func(cfg *clientCfg)

type clientCfg struct {
	baseURL string
	tel     telemetry.API
}

func WithBaseURL(baseURL string) ClientOption {
	return func(cfg *clientCfg) {
		cfg.baseURL = baseURL
	}
}

func WithTelemetry(tel telemetry.API) ClientOption {
	return func(cfg *clientCfg) {
		cfg.tel = tel
	}
}

func NewClient(doer Doer, opts ...ClientOption) *Client {
	assert.NotNil(doer)

	cfg := clientCfg{baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(&cfg)
	}
	assert.NotEmptyStr(cfg.baseURL)
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}

	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		tel:     telemetry.NewScopedAPI("yelpapi", cfg.tel),
	}
}

// Authenticate exchanges the application credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (Token, error) {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	url := c.baseURL + "/oauth2/token"
	res, err := c.http.Do(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    url,
		Form: map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     creds.AppID,
			"client_secret": creds.AppSecret,
		},
	})
	if err != nil {
		c.tel.ReportBroken(report_client_authenticate, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request token")
		return Token{}, fmt.Errorf("authenticate: %w", err)
	}

	var token Token
	err = decode(res, url, &token)
	if err == nil && token.AccessToken == "" {
		err = &DecodeError{URL: url, Status: res.Status, Err: errors.New("missing access_token")}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token request rejected")
		return Token{}, fmt.Errorf("authenticate: %w", err)
	}
	return token, nil
}

// LookupBusiness fetches the details of a single business.
func (c *Client) LookupBusiness(ctx context.Context, id string, token Token) (Business, error) {
	ctx, span := tracer.Start(ctx, "client:LookupBusiness")
	defer span.End()
	span.SetAttributes(attribute.String("business_id", id))

	url := c.baseURL + "/v3/businesses/" + id
	res, err := c.http.Do(ctx, fetch.Request{
		Method: http.MethodGet,
		URL:    url,
		Header: map[string]string{
			"Authorization": "Bearer " + token.AccessToken,
		},
	})
	if err != nil {
		c.tel.ReportBroken(report_client_lookup_business, err, id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request business")
		return Business{}, fmt.Errorf("lookup business %s: %w", id, err)
	}

	var business Business
	err = decode(res, url, &business)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "business request rejected")
		return Business{}, fmt.Errorf("lookup business %s: %w", id, err)
	}
	return business, nil
}

// decode fails with an APIError when the body carries an error descriptor,
// yelp reports errors in the body so the status code is only informational.
func decode(res fetch.Response, url string, out any) error {
	var errBody errorBody
	if err := json.Unmarshal([]byte(res.Body), &errBody); err != nil {
		return &DecodeError{URL: url, Status: res.Status, Err: err}
	}
	if errBody.Error != nil {
		return &APIError{
			Code:        errBody.Error.Code,
			Description: errBody.Error.Description,
		}
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return &DecodeError{URL: url, Status: res.Status, Err: err}
	}
	return nil
}
