package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/vitos-assistant/internal/config"
	"github.com/futig/vitos-assistant/internal/entity"
	pkgRetry "github.com/futig/vitos-assistant/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConnector(url string) *Connector {
	return NewConnector(config.RerankConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            url,
			Token:          "cohere-key",
			RequestTimeout: 5 * time.Second,
		},
		Model:    "rerank-english-v3.0",
		Endpoint: "/v1/rerank",
		Retry:    pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: time.Millisecond},
	}, zap.NewNop())
}

func TestRerank_OrdersByRelevance(t *testing.T) {
	var got entity.RerankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "Bearer cohere-key", r.Header.Get("Authorization"))
		assert.Equal(t, "vitos-assistant", r.Header.Get("X-Client-Name"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(entity.RerankResponse{Results: []entity.RerankResult{
			{Index: 2, RelevanceScore: 0.9},
			{Index: 0, RelevanceScore: 0.4},
		}})
	}))
	defer srv.Close()

	c := newTestConnector(srv.URL)
	ranked, err := c.Rerank(context.Background(), "opening hours", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, got.TopN)
	assert.Equal(t, "opening hours", got.Query)
	require.Len(t, ranked, 2)
	assert.Equal(t, "c", ranked[0].Content)
	assert.Equal(t, "a", ranked[1].Content)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRerank_TopNClampedToCandidates(t *testing.T) {
	var got entity.RerankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(entity.RerankResponse{Results: []entity.RerankResult{{Index: 0, RelevanceScore: 0.5}}})
	}))
	defer srv.Close()

	ranked, err := newTestConnector(srv.URL).Rerank(context.Background(), "q", []string{"only"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TopN)
	require.Len(t, ranked, 1)
}

func TestRerank_NoDocumentsSkipsCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	ranked, err := newTestConnector(srv.URL).Rerank(context.Background(), "q", nil, 3)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRerank_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(entity.RerankResponse{Results: []entity.RerankResult{{Index: 0, RelevanceScore: 1}}})
	}))
	defer srv.Close()

	ranked, err := newTestConnector(srv.URL).Rerank(context.Background(), "q", []string{"x"}, 1)
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRerank_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestConnector(srv.URL).Rerank(context.Background(), "q", []string{"x"}, 1)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestMockConnector_KeepsOrder(t *testing.T) {
	m := NewMockConnector(zap.NewNop())
	ranked, err := m.Rerank(context.Background(), "q", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Content)
	assert.Equal(t, "b", ranked[1].Content)
}
