// Package news fetches a small list of recent articles for a topic.
package news

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"goldesk/internal/httpx"
	"goldesk/internal/ratelimit"
)

// Article is an externally sourced news item. URL may be empty.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

type Config struct {
	Endpoint string
	APIKey   string
	MaxItems int // articles retained per request, default 3
	// Gate throttles requests to stay inside the news API quota.
	Gate *ratelimit.TokenBucket
}

type Client struct {
	cfg    Config
	client *httpx.Client
	log    zerolog.Logger
}

func New(cfg Config, hc *httpx.Client, log zerolog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://newsapi.org/v2/everything"
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 3
	}
	return &Client{cfg: cfg, client: hc, log: log}
}

// TopArticles returns up to MaxItems articles matching topic. Every failure
// path returns an empty slice: callers cannot distinguish "fetch failed"
// from "zero results", and must not treat empty as an error.
func (c *Client) TopArticles(ctx context.Context, topic string) []Article {
	if c.cfg.Gate != nil {
		if err := c.cfg.Gate.Wait(ctx); err != nil {
			return nil
		}
	}

	q := url.Values{}
	q.Set("q", topic)
	q.Set("apiKey", c.cfg.APIKey)
	u := c.cfg.Endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil
	}
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		c.log.Warn().Err(err).Msg("news fetch failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("news fetch failed")
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.log.Warn().Err(err).Msg("news body read failed")
		return nil
	}

	items := gjson.GetBytes(body, "articles")
	if !items.IsArray() {
		c.log.Warn().Msg("news response missing articles array")
		return nil
	}
	out := make([]Article, 0, c.cfg.MaxItems)
	items.ForEach(func(_, v gjson.Result) bool {
		out = append(out, Article{
			Title:       v.Get("title").String(),
			Description: v.Get("description").String(),
			URL:         v.Get("url").String(),
		})
		return len(out) < c.cfg.MaxItems
	})
	return out
}
