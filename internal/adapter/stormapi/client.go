// Package stormapi is the HTTP transport for the upstream storm and rain
// map API. Calls go through a circuit breaker that opens after repeated
// consecutive transport failures; no request is retried.
package stormapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/observability"
	"github.com/sony/gobreaker/v2"
)

// RequestIDHeader carries the correlation id from
// [observability.WithRequestID] upstream.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 16 << 20

// Client fetches raw storm and rain payloads.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewClient creates a client for baseURL. Each request is bounded by
// timeout, and the breaker opens after maxFailures consecutive failures.
func NewClient(baseURL string, timeout time.Duration, maxFailures int, logger *slog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "stormapi",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// isSuccessful decides what the breaker counts as a failure. A 404 is a
// valid answer and a cancelled request says nothing about upstream health.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

// FetchStorms returns the raw storms-by-date body for date. A 404 is a
// *domain.NotFoundError; every other failure is a *domain.TransportError.
func (c *Client) FetchStorms(ctx context.Context, date domain.DateKey) ([]byte, error) {
	u := fmt.Sprintf("%s/api/date/%s/storms", c.baseURL, url.PathEscape(date.String()))
	return c.get(ctx, u, "fetch storms", &domain.NotFoundError{Date: date})
}

// FetchRainGrid returns the raw realtime rain map body.
func (c *Client) FetchRainGrid(ctx context.Context, gridSize, density int) ([]byte, error) {
	params := url.Values{
		"grid_size": {strconv.Itoa(gridSize)},
		"density":   {strconv.Itoa(density)},
	}
	u := fmt.Sprintf("%s/rainmap/realtime?%s", c.baseURL, params.Encode())
	return c.get(ctx, u, "fetch rain grid", nil)
}

// get runs one request through the breaker. notFound, when non-nil, is
// returned for a 404 instead of a transport error.
func (c *Client) get(ctx context.Context, fullURL, op string, notFound error) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, fullURL, op, notFound)
	})
	if err == nil {
		return body, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	return nil, err
}

func (c *Client) doRequest(ctx context.Context, fullURL, op string, notFound error) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if id := observability.RequestID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, notFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("upstream error response", "op", op, "status", resp.StatusCode, "body", string(snippet))
		return nil, &domain.TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
