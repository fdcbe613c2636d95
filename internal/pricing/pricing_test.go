package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-scanner/internal/cache"
)

func TestPricesFallbackWithoutAPIKey(t *testing.T) {
	s := NewService("", cache.NewMemory(5*time.Minute), FallbackTableV1)

	prices := s.Prices(context.Background(), []string{"SOL", "UNKNOWNTOKEN"})

	assert.Equal(t, ReferenceSOLPrice, prices["SOL"])
	assert.Equal(t, DefaultUnknownPrice, prices["UNKNOWNTOKEN"])
}

func TestPricesCaseInsensitive(t *testing.T) {
	s := NewService("", cache.NewMemory(5*time.Minute), FallbackTableV1)

	prices := s.Prices(context.Background(), []string{"usdc", "Bonk"})

	assert.Equal(t, 1.00, prices["USDC"])
	assert.Equal(t, 0.00002, prices["BONK"])
}

func TestPricesRemoteLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("x_cg_demo_api_key"))
		assert.Contains(t, r.URL.Query().Get("ids"), "solana")
		w.Write([]byte(`{"solana":{"usd":152.33},"usd-coin":{"usd":0.999}}`))
	}))
	defer srv.Close()

	s := NewService("test-key", cache.NewMemory(5*time.Minute), FallbackTableV1)
	s.apiBase = srv.URL

	prices := s.Prices(context.Background(), []string{"SOL", "USDC", "SAMO"})

	assert.Equal(t, 152.33, prices["SOL"])
	assert.Equal(t, 0.999, prices["USDC"])
	// SAMO was not returned remotely and comes from the fallback table
	assert.Equal(t, 0.015, prices["SAMO"])
}

func TestPricesRemoteFailureDegradesToFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewService("test-key", cache.NewMemory(5*time.Minute), FallbackTableV1)
	s.apiBase = srv.URL

	prices := s.Prices(context.Background(), []string{"SOL"})
	assert.Equal(t, ReferenceSOLPrice, prices["SOL"])
}

func TestPricesCachedPerSymbolSet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"solana":{"usd":150.0}}`))
	}))
	defer srv.Close()

	s := NewService("test-key", cache.NewMemory(5*time.Minute), FallbackTableV1)
	s.apiBase = srv.URL

	// Same set twice: one remote call
	s.Prices(context.Background(), []string{"SOL"})
	s.Prices(context.Background(), []string{"sol", "SOL"})
	assert.Equal(t, int32(1), hits.Load())

	// A different set is a different cache entry and recomputes
	s.Prices(context.Background(), []string{"SOL", "USDC"})
	assert.Equal(t, int32(2), hits.Load())
}

func TestPriceCacheKeyStable(t *testing.T) {
	key1 := priceCacheKey([]string{"SOL", "USDC", "RAY"})
	key2 := priceCacheKey([]string{"ray", "usdc", "sol", "SOL"})
	require.Equal(t, key1, key2)
	assert.Equal(t, "prices:RAY,SOL,USDC", key1)
}

func TestPricesEmptyRequest(t *testing.T) {
	s := NewService("", cache.NewMemory(5*time.Minute), FallbackTableV1)
	assert.Empty(t, s.Prices(context.Background(), nil))
}
