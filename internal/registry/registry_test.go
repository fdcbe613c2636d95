package registry

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
	"github.com/solana-scanner/internal/retry"
)

func newTestService(listURL string) *Service {
	return NewService(
		listURL,
		cache.NewMemory(time.Hour),
		cache.NewMemory(24*time.Hour),
		BuiltinDirectory,
	)
}

func TestMetadataFromRemoteDirectory(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[
			{"address":"MintRAY","name":"Raydium","symbol":"RAY","logoURI":"https://img.example/ray.png","decimals":6}
		]`))
	}))
	defer srv.Close()

	s := newTestService(srv.URL)
	meta := s.Metadata(context.Background(), "MintRAY")

	assert.Equal(t, "Raydium", meta.Name)
	assert.Equal(t, "RAY", meta.Symbol)
	assert.Equal(t, 6, meta.Decimals)
	assert.Equal(t, "https://img.example/ray.png", meta.Logo)

	// Directory is cached; a second unknown-mint lookup must not refetch it
	s.Metadata(context.Background(), "MintOther")
	assert.Equal(t, int32(1), hits.Load())
}

func TestMetadataUnknownMintPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := newTestService(srv.URL)
	meta := s.Metadata(context.Background(), "Abc123XYZ456")

	assert.Equal(t, "Unknown Token (Abc123...)", meta.Name)
	assert.Equal(t, UnknownSymbol, meta.Symbol)
	assert.Equal(t, DefaultDecimals, meta.Decimals)
	assert.Equal(t, "Abc123XYZ456", meta.Address)
}

func TestMetadataFallsBackToBuiltin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestService(srv.URL)
	s.retryCfg = retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	meta := s.Metadata(context.Background(), USDCMint)
	assert.Equal(t, "USD Coin", meta.Name)
	assert.Equal(t, "USDC", meta.Symbol)
	assert.Equal(t, 6, meta.Decimals)
}

func TestMetadataCachedPerMint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"address":"MintA","name":"Token A","symbol":"A","decimals":2}]`))
	}))
	defer srv.Close()

	listCache := cache.NewMemory(24 * time.Hour)
	metaCache := cache.NewMemory(time.Hour)
	s := NewService(srv.URL, metaCache, listCache, BuiltinDirectory)

	first := s.Metadata(context.Background(), "MintA")
	second := s.Metadata(context.Background(), "MintA")
	require.Equal(t, first, second)
	assert.Contains(t, metaCache.Keys(), "token_MintA")
}
