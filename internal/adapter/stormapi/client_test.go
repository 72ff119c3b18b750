package stormapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, maxFailures int) *Client {
	return NewClient(baseURL, 2*time.Second, maxFailures, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchStorms_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/date/20250924/storms", r.URL.Path)
		assert.Equal(t, "req-1", r.Header.Get(RequestIDHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	body, err := c.FetchStorms(observability.WithRequestID(context.Background(), "req-1"), "20250924")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{}}`, string(body))
}

func TestClient_FetchStorms_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	for i := 0; i < 3; i++ {
		_, err := c.FetchStorms(context.Background(), "20250101")
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf, "404s never open the breaker")
		assert.Equal(t, domain.DateKey("20250101"), nf.Date)
	}
}

func TestClient_FetchStorms_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	_, err := c.FetchStorms(context.Background(), "20250924")
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestClient_FetchStorms_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := testClient(url, 5)
	_, err := c.FetchStorms(context.Background(), "20250924")
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, 5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.FetchStorms(context.Background(), "20250924")
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	for i := 0; i < 2; i++ {
		_, err := c.FetchStorms(context.Background(), "20250924")
		require.Error(t, err)
	}
	_, err := c.FetchStorms(context.Background(), "20250924")
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Equal(t, int32(2), hits.Load(), "open breaker fails fast without a request")
}

func TestClient_CancelledRequestsDoNotTrip(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchStorms(ctx, "20250924")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = c.FetchStorms(context.Background(), "20250924")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_FetchRainGrid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rainmap/realtime", r.URL.Path)
		assert.Equal(t, "15", r.URL.Query().Get("grid_size"))
		assert.Equal(t, "50", r.URL.Query().Get("density"))
		_, _ = w.Write([]byte(`{"data":[{"lon":-100,"lat":20,"rain":0.4}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	body, err := c.FetchRainGrid(context.Background(), 15, 50)
	require.NoError(t, err)

	env, err := domain.ParseRainEnvelope(body)
	require.NoError(t, err)
	require.Len(t, env.Samples, 1)
	assert.InDelta(t, 0.4, env.Samples[0].Rain, 1e-9)
}

func TestClient_FetchRainGrid_NotFoundIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := testClient(srv.URL, 5)
	_, err := c.FetchRainGrid(context.Background(), 15, 50)
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
}
