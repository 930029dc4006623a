package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/shared"
	"golang.org/x/time/rate"
)

// client carries what every adapter needs to issue a request.
type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	prepare    func(*http.Request)
}

// Option configures a service.
type Option func(*client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) { cl.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(cl *client) { cl.logger = l }
}

// WithRateLimit allows perSecond requests per second. Non-positive values disable limiting.
func WithRateLimit(perSecond float64) Option {
	return func(cl *client) { cl.limiter = newLimiter(perSecond) }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *client) {
		if cl.httpClient == http.DefaultClient {
			cl.httpClient = &http.Client{Timeout: d}
			return
		}
		cl.httpClient.Timeout = d
	}
}

func newClient(component string, opts []Option) client {
	cl := client{httpClient: http.DefaultClient, limiter: newLimiter(0)}
	for _, opt := range opts {
		opt(&cl)
	}
	if cl.logger == nil {
		cl.logger = shared.NopLogger()
	}
	cl.logger = shared.WithLogger(cl.logger, "component", component)
	return cl
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// statusError is returned for non-2xx responses.
type statusError struct {
	status int
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.status) }

// getJSON waits for the limiter, issues a GET and decodes a 2xx body into result.
func (c *client) getJSON(ctx context.Context, url string, result any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, result)
}

// doJSON is getJSON for any method. A non-nil body is sent as JSON; a nil result skips decoding.
func (c *client) doJSON(ctx context.Context, method, url string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.prepare != nil {
		c.prepare(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request", "method", method, "url", req.URL.Redacted(), "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = errResp.Message
		}
		if msg != "" {
			return fmt.Errorf("%w: %w: %s", shared.ErrAPIRequest, &statusError{resp.StatusCode}, msg)
		}
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, &statusError{resp.StatusCode})
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
		}
	}
	return nil
}
