// Package classify resolves drug codes to drug classes.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// routes maps a code system to the lookup path of the classification service.
var routes = map[string]string{
	schema.DINCodeSystem: "/classbydin",
	schema.ATCCodeSystem: "/classbyatc",
}

// HTTPClient looks drug codes up in a remote classification service.
// It is safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ contract.ClassificationService = &HTTPClient{} // Compile-time check

// classResponse is the body of a successful lookup.
type classResponse struct {
	Class string `json:"class"`
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = contract.DefaultClassifierTimeout
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Route returns the lookup path of a code, or an error wrapping
// contract.ErrUnsupportedCodeSystem. Code systems match case-insensitively.
func Route(code, codeSystem string) (string, error) {
	prefix, ok := routes[strings.ToLower(codeSystem)]
	if !ok {
		return "", fmt.Errorf("%w: %q", contract.ErrUnsupportedCodeSystem, codeSystem)
	}
	if code == "" {
		return "", fmt.Errorf("empty %s drug code", codeSystem)
	}
	return prefix + "/" + url.PathEscape(code), nil
}

// Classify implements the ClassificationService interface.
func (c *HTTPClient) Classify(ctx context.Context, code, codeSystem string) (string, error) {
	path, err := Route(code, codeSystem)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", contract.ErrClassNotFound, path)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("request to %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out classResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response of %s: %w", path, err)
	}
	if out.Class == "" {
		return "", fmt.Errorf("%w: %s", contract.ErrClassNotFound, path)
	}
	return out.Class, nil
}
