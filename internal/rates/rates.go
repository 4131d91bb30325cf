// Package rates fetches the USD to local currency conversion rate.
package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the exchange rate API.
type Client struct {
	baseURL    string
	apiKey     string
	currency   string
	httpClient HTTPClient
}

type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates an exchange rate API client. currency is the ISO code of
// the local currency the rate is quoted in (e.g. "EGP").
func NewClient(apiKey, currency string, options ...Option) *Client {
	c := &Client{
		baseURL:    "https://v6.exchangerate-api.com/v6",
		apiKey:     apiKey,
		currency:   currency,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Rate returns local currency units per 1 USD.
func (c *Client) Rate(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/%s/latest/USD", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return 0, fmt.Errorf("GET %s -> %d: %s", c.baseURL, res.StatusCode, string(b))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("reading response: %w", err)
	}
	v := gjson.GetBytes(body, "conversion_rates."+c.currency)
	if !v.Exists() || v.Type != gjson.Number {
		return 0, fmt.Errorf("missing conversion_rates.%s in response", c.currency)
	}
	rate := v.Float()
	if rate <= 0 {
		return 0, fmt.Errorf("non-positive rate %v for %s", rate, c.currency)
	}
	return rate, nil
}

// Provider converts any fetch failure into the configured default rate.
// The price pipeline must never block on FX availability, so Get does not
// return an error; degradation is logged as a warning at this boundary.
type Provider struct {
	Client  *Client
	Default float64
	Log     zerolog.Logger
}

// Get returns the current rate or the default. The rate is deliberately not
// cached: it is re-fetched on every price computation (FX can drift faster
// than the spot price TTL).
func (p *Provider) Get(ctx context.Context) float64 {
	rate, err := p.Client.Rate(ctx)
	if err != nil {
		p.Log.Warn().Err(err).Float64("default", p.Default).Msg("exchange rate fetch failed, using default")
		return p.Default
	}
	return rate
}
