package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/photolink/coappear/pkg/config"
)

// httpOracle is the shared shape of the three bespoke HTTP-backed
// oracles: a base URL, an API key header, and a bounded-timeout client.
// None of the three has a named vendor SDK in the pack — spec.md treats
// them as pluggable interfaces reached over HTTP, so a hand-written thin
// client is the grounded choice (§4.9).
type httpOracle struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newHTTPOracle(cfg config.OracleConfig) httpOracle {
	return httpOracle{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (o httpOracle) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.JoinPath(o.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// HTTPImageSearch calls a configured ImageSearch backend over HTTP.
type HTTPImageSearch struct{ o httpOracle }

// NewHTTPImageSearch builds an ImageSearch client from oracle config.
func NewHTTPImageSearch(cfg config.OracleConfig) *HTTPImageSearch {
	return &HTTPImageSearch{o: newHTTPOracle(cfg)}
}

func (c *HTTPImageSearch) pingHealth(ctx context.Context) error { return c.o.pingHealth(ctx) }

// Search implements ImageSearch.
func (c *HTTPImageSearch) Search(ctx context.Context, query string) ([]ImageResult, error) {
	var out struct {
		Results []ImageResult `json:"results"`
	}
	if err := c.o.postJSON(ctx, "/search", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// HTTPFaceRecognizer calls a configured FaceRecognizer backend over HTTP.
type HTTPFaceRecognizer struct{ o httpOracle }

// NewHTTPFaceRecognizer builds a FaceRecognizer client from oracle config.
func NewHTTPFaceRecognizer(cfg config.OracleConfig) *HTTPFaceRecognizer {
	return &HTTPFaceRecognizer{o: newHTTPOracle(cfg)}
}

func (c *HTTPFaceRecognizer) pingHealth(ctx context.Context) error { return c.o.pingHealth(ctx) }

// Recognize implements FaceRecognizer.
func (c *HTTPFaceRecognizer) Recognize(ctx context.Context, imageURL string) ([]Detection, error) {
	var out struct {
		Detections []Detection `json:"detections"`
	}
	if err := c.o.postJSON(ctx, "/recognize", map[string]string{"imageUrl": imageURL}, &out); err != nil {
		return nil, err
	}
	return out.Detections, nil
}

// HTTPVisionFilter calls a configured VisionFilter backend over HTTP.
type HTTPVisionFilter struct{ o httpOracle }

// NewHTTPVisionFilter builds a VisionFilter client from oracle config.
func NewHTTPVisionFilter(cfg config.OracleConfig) *HTTPVisionFilter {
	return &HTTPVisionFilter{o: newHTTPOracle(cfg)}
}

func (c *HTTPVisionFilter) pingHealth(ctx context.Context) error { return c.o.pingHealth(ctx) }

// IsSingleScene implements VisionFilter.
func (c *HTTPVisionFilter) IsSingleScene(ctx context.Context, imageURL string) (SceneResult, error) {
	var out SceneResult
	if err := c.o.postJSON(ctx, "/is-single-scene", map[string]string{"imageUrl": imageURL}, &out); err != nil {
		return SceneResult{}, err
	}
	return out, nil
}

// pingHealth performs a cheap GET /health against the oracle, used by
// the background HealthMonitor (spec.md §4.8.2).
func (o httpOracle) pingHealth(ctx context.Context) error {
	if o.baseURL == "" {
		return fmt.Errorf("oracle has no configured base URL")
	}
	u, err := url.JoinPath(o.baseURL, "/health")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}
