package calcservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrMissingBaseURL    = errors.New("calculation service base URL is required")
	ErrInvalidBaseURL    = errors.New("invalid calculation service base URL")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed response body")
)

// Config is the process-wide configuration injected at startup.
type Config struct {
	// BaseURL prefixes both endpoints, e.g. "https://example.com/api".
	BaseURL string

	// HTTPClient overrides the default instrumented client. The default has
	// no timeout: a dispatched request runs until it completes or fails.
	HTTPClient *http.Client
}

// Client talks to the remote calculation service. It implements both the
// request dispatcher and the access counter fetcher.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{baseURL: base, http: hc}, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// decodeBody decodes exactly one JSON value from r into v. Numbers decoded
// into an interface are kept as json.Number. Anything after the value other
// than whitespace is an error.
func decodeBody(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", ErrMalformedResponse)
	}
	return nil
}
