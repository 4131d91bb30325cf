// Package alphavantage reads the realtime XAU/USD quote from Alpha Vantage.
// It is the secondary spot source: slower-moving and quota-bound, but
// independent of the primary market-data feed.
package alphavantage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"goldesk/internal/httpx"
	"goldesk/internal/ratelimit"
)

type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	// Gate throttles requests; the free tier allows only a handful per minute.
	Gate *ratelimit.MinInterval
}

type Source struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
	if cfg.Name == "" {
		cfg.Name = "AlphaVantage"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alphavantage.co/query"
	}
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

// Spot returns the XAU→USD exchange rate, i.e. USD per troy ounce of gold.
func (s *Source) Spot(ctx context.Context) (float64, error) {
	if s.cfg.Gate != nil {
		if err := s.cfg.Gate.Wait(ctx); err != nil {
			return 0, err
		}
	}

	q := url.Values{}
	q.Set("function", "CURRENCY_EXCHANGE_RATE")
	q.Set("from_currency", "XAU")
	q.Set("to_currency", "USD")
	q.Set("apikey", s.cfg.APIKey)
	u := s.cfg.BaseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return 0, fmt.Errorf("GET %s -> %d: %s", s.cfg.BaseURL, resp.StatusCode, string(b))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("reading response: %w", err)
	}

	// keys in this payload contain literal dots, so escape them for gjson
	v := gjson.GetBytes(body, `Realtime Currency Exchange Rate.5\. Exchange Rate`)
	if !v.Exists() {
		return 0, fmt.Errorf("missing Realtime Currency Exchange Rate in response")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed exchange rate %q: %w", v.String(), err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive exchange rate %v", price)
	}
	return price, nil
}
