package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/photolink/coappear/pkg/config"
)

// maxPromptBytes and maxResponseBytes bound every schema-bound call (§4.4 "size limits").
const (
	maxPromptBytes   = 32 * 1024
	maxResponseBytes = 16 * 1024
)

// Completer is the minimal shape every planner call needs from an LLM
// backend: a single prompt in, a single text completion out. The planner
// never streams — every entry point is a one-shot schema-bound request.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HTTPCompleter calls a configured Planner backend over HTTP. No vendor
// SDK is assumed in the pack for a generic "LLM provider" oracle, so this
// follows the same bespoke-client shape as pkg/oracle's HTTP clients.
type HTTPCompleter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPCompleter builds a Completer from oracle config.
func NewHTTPCompleter(cfg config.OracleConfig) *HTTPCompleter {
	return &HTTPCompleter{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: &http.Client{Timeout: cfg.Timeout}}
}

// Complete implements Completer.
func (c *HTTPCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if len(prompt) > maxPromptBytes {
		prompt = prompt[:maxPromptBytes]
	}

	payload, err := json.Marshal(struct {
		Prompt string `json:"prompt"`
	}{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	u, err := url.JoinPath(c.baseURL, "/complete")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call planner: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("planner returned status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode planner response: %w", err)
	}
	return out.Text, nil
}

func (c *HTTPCompleter) pingHealth(ctx context.Context) error {
	u, err := url.JoinPath(c.baseURL, "/health")
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}
