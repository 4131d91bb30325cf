// Package textgen is the opaque text-in/text-out fallback behind the query
// router. Implementations are best effort and non-critical; the router
// substitutes a static guidance message when generation fails.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Generator produces a free-text answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=textgen_test -destination=mock_http_client_test.go -source=textgen.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HFClient calls a hosted inference endpoint for a single model.
type HFClient struct {
	baseURL    string
	model      string
	token      string
	httpClient HTTPClient
}

type Option func(*HFClient)

// WithBaseURL sets the base URL for the inference API.
func WithBaseURL(baseURL string) Option {
	return func(c *HFClient) { c.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *HFClient) { c.httpClient = httpClient }
}

// NewHFClient creates a client for the given model, e.g. "google/flan-t5-large".
func NewHFClient(token, model string, options ...Option) *HFClient {
	c := &HFClient{
		baseURL:    "https://api-inference.huggingface.co/models",
		model:      model,
		token:      token,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

func (c *HFClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(hfRequest{Inputs: prompt})
	u := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return "", fmt.Errorf("POST %s -> %d: %s", u, res.StatusCode, string(b))
	}
	respBody, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	text := gjson.GetBytes(respBody, "0.generated_text")
	if !text.Exists() {
		return "", fmt.Errorf("missing generated_text in response")
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("empty generation")
	}
	return out, nil
}
