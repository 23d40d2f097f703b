package nwps

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
	"github.com/couchcryptid/flood-risk-engine/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, attempts int) *Client {
	return NewClient(
		baseURL,
		"flood-risk-engine/test",
		2*time.Second,
		retry.Policy{MaxAttempts: attempts, Delay: time.Millisecond},
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestClient_Thresholds_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gauges/07332500", r.URL.Path)
		_, _ = w.Write([]byte(`{"flood":{"categories":{
			"action":{"stage":10},"minor":{"stage":12},"moderate":{"stage":15},"major":{"stage":18}
		}}}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 1).Thresholds(context.Background(), "07332500")
	require.NoError(t, err)

	assert.Equal(t, 10.0, got.Action)
	assert.Equal(t, 12.0, got.Minor)
	assert.Equal(t, 15.0, got.Moderate)
	assert.Equal(t, 18.0, got.Major)
	assert.Equal(t, domain.SourceOfficial, got.Source)
	assert.True(t, got.Valid())
}

func TestClient_Thresholds_ZeroedCategoriesRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"flood":{"categories":{
			"action":{"stage":0},"minor":{"stage":0},"moderate":{"stage":0},"major":{"stage":0}
		}}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 1).Thresholds(context.Background(), "07332500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete flood categories")
}

func TestClient_Thresholds_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Thresholds(context.Background(), "99999999")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "404 must not consume the retry budget")
}

func TestClient_Thresholds_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"flood":{"categories":{
			"action":{"stage":10},"minor":{"stage":12},"moderate":{"stage":15},"major":{"stage":18}
		}}}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL, 3).Thresholds(context.Background(), "07332500")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, got.Valid())
}
