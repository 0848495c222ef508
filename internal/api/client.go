package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/danshi-org/client/internal/lib"
	metricspkg "github.com/danshi-org/client/internal/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "danshi-client"

	// Burst-friendly but polite: the backend rate-limits per session.
	defaultRPS   = 10
	defaultBurst = 20
)

// TokenSource supplies the bearer token attached to every request.
type TokenSource interface {
	Token() string
}

// Client is the HTTP client for the danshi REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	log        *zap.Logger
	metrics    *metricspkg.ClientMetrics
}

// NewClient creates a Client for the given base URL, e.g.
// "https://api.danshi.app". The metrics argument may be nil.
func NewClient(baseURL string, tokens TokenSource, log *zap.Logger, metrics *metricspkg.ClientMetrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		log:        log,
		metrics:    metrics,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// do issues one request and decodes the JSON response into out (which may be
// nil). The endpoint name is only used for logging and metric labels.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return err
	}
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.observe(endpoint, "error", started)
		c.log.Debug("request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return err
	}
	defer response.Body.Close()

	c.observe(endpoint, statusClass(response.StatusCode), started)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var eb errorBody
		_ = json.NewDecoder(response.Body).Decode(&eb)
		c.log.Debug("request rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", response.StatusCode),
			zap.String("message", eb.Error),
		)
		return lib.ErrorFromResponse(response.StatusCode, eb.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint, status string, started time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveRequest(endpoint, status, time.Since(started).Seconds())
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
