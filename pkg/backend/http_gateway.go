package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-insights/components/insights"
)

const (
	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps how much of a response body the gateway will buffer.
	DefaultMaxBodyBytes int64 = 32 << 20
)

// HTTPConfig configures the HTTP gateway.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// HTTPGateway reads analysis payloads from the reporting backend over REST.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	maxBody int64
}

// ErrBodyTooLarge reports a response body over the configured cap.
var ErrBodyTooLarge = errors.New("backend: response body too large")

var _ insights.Gateway = (*HTTPGateway)(nil)

// NewHTTPGateway builds a gateway rooted at cfg.BaseURL.
func NewHTTPGateway(cfg HTTPConfig) (*HTTPGateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &HTTPGateway{
		baseURL: base,
		apiKey:  cfg.APIKey,
		client:  httpClient,
		maxBody: maxBody,
	}, nil
}

// Request issues a GET for path with query and decodes the JSON body. Every failure is
// reported as an *insights.FetchError.
func (g *HTTPGateway) Request(ctx context.Context, path string, query url.Values) (insights.Payload, error) {
	target := g.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, insights.TransportError(err)
	}
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, insights.TransportError(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBody+1))
	if err != nil {
		return nil, insights.TransportError(err)
	}
	if int64(len(body)) > g.maxBody {
		return nil, insights.TransportError(fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, g.maxBody))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, insights.StatusErrorReason(resp.StatusCode, insights.ReasonPhrase(resp.Status), body)
	}
	payload, err := insights.DecodePayload(body)
	if err != nil {
		return nil, insights.TransportError(err)
	}
	return payload, nil
}
