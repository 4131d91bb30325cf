// Package yahoo reads gold futures closes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"goldesk/internal/httpx"
)

type Config struct {
	Name    string
	BaseURL string
	Ticker  string // futures instrument, e.g. "GC=F"
}

type Source struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if cfg.Ticker == "" {
		cfg.Ticker = "GC=F"
	}
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

// Spot returns the most recent daily close.
func (s *Source) Spot(ctx context.Context) (float64, error) {
	closes, err := s.closes(ctx, "1d")
	if err != nil {
		return 0, err
	}
	return closes[len(closes)-1], nil
}

// History returns daily closes for the given range (e.g. "5d", "1mo", "1y").
func (s *Source) History(ctx context.Context, rng string) ([]float64, error) {
	return s.closes(ctx, rng)
}

func (s *Source) closes(ctx context.Context, rng string) ([]float64, error) {
	u := fmt.Sprintf("%s/%s?range=%s&interval=1d", s.cfg.BaseURL, url.PathEscape(s.cfg.Ticker), url.QueryEscape(rng))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("GET %s -> %d: %s", u, resp.StatusCode, string(b))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if e := gjson.GetBytes(body, "chart.error"); e.Exists() && e.Type != gjson.Null {
		return nil, fmt.Errorf("chart error: %s", e.Raw)
	}
	series := gjson.GetBytes(body, "chart.result.0.indicators.quote.0.close")
	if !series.Exists() || !series.IsArray() {
		return nil, fmt.Errorf("no close series in response")
	}
	var closes []float64
	series.ForEach(func(_, v gjson.Result) bool {
		// nulls appear for days the market has no close yet
		if v.Type == gjson.Number {
			closes = append(closes, v.Float())
		}
		return true
	})
	if len(closes) == 0 {
		return nil, fmt.Errorf("empty close series for %s", s.cfg.Ticker)
	}
	return closes, nil
}
