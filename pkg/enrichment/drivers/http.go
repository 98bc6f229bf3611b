// Package drivers implements enrichment.Driver for the two
// config.EnrichmentDriverConfig.Type variants: "http" (a generic
// indicator-lookup JSON API) and "static" (fixed lookup table, for tests
// and offline deployments).
package drivers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sablecore/huntbay/pkg/config"
	"github.com/sablecore/huntbay/pkg/enrichment"
)

// DefaultTimeout is used when a config.EnrichmentDriverConfig leaves
// Timeout at its zero value.
const DefaultTimeout = 10 * time.Second

// HTTP is a generic indicator-lookup driver: GET {base_url}/{indicator},
// decoding the response body as a free-form JSON object into Result.Raw.
// Neither VirusTotal nor Shodan nor AbuseIPDB ships a Go SDK in this
// example pack, so the wire format is left generic rather than modeled on
// any one vendor's schema — deployments point BaseURL at an adapter that
// normalizes their vendor of choice into this shape.
type HTTP struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewHTTP constructs an HTTP driver from its config entry.
func NewHTTP(cfg config.EnrichmentDriverConfig) (*HTTP, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("enrichment: invalid base_url for driver %q: %w", cfg.Name, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{
		name:       cfg.Name,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name implements enrichment.Driver.
func (h *HTTP) Name() string { return h.name }

// Lookup implements enrichment.Driver.
func (h *HTTP) Lookup(ctx context.Context, indicator string) (*enrichment.Result, error) {
	reqURL := fmt.Sprintf("%s/%s", h.baseURL, url.PathEscape(indicator))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("enrichment: building request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrichment: %s lookup failed: %w", h.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment: %s lookup returned %s", h.name, resp.Status)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("enrichment: decoding %s response: %w", h.name, err)
	}

	return &enrichment.Result{
		Indicator:  indicator,
		Source:     h.name,
		Score:      scoreFromRaw(raw),
		Categories: categoriesFromRaw(raw),
		Raw:        raw,
	}, nil
}

// Ping implements enrichment.Driver: a bare GET of the base URL, treating
// any non-5xx response as reachable (a 404 from a root path is still
// evidence the service is up).
func (h *HTTP) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL, nil)
	if err != nil {
		return fmt.Errorf("enrichment: building ping request: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enrichment: %s unreachable: %w", h.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("enrichment: %s returned %s", h.name, resp.Status)
	}
	return nil
}

func scoreFromRaw(raw map[string]any) float64 {
	if v, ok := raw["score"].(float64); ok {
		return v
	}
	return 0
}

func categoriesFromRaw(raw map[string]any) []string {
	v, ok := raw["categories"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, c := range v {
		if s, ok := c.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
