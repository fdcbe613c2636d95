// Package pricing resolves USD prices for token symbols, batching lookups
// against a remote price API and filling gaps from a fixed fallback table.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/solana-scanner/internal/cache"
	"github.com/solana-scanner/internal/logging"
)

const (
	// ReferenceSOLPrice is the hardcoded estimate used before real prices
	// are known (pipeline stage 1) and as the SOL fallback.
	ReferenceSOLPrice = 111.45

	// DefaultUnknownPrice is assigned to symbols absent from both the
	// remote API and the fallback table.
	DefaultUnknownPrice = 0.1

	defaultAPIBase = "https://api.coingecko.com/api/v3/simple/price"
)

// FallbackTableV1 is the versioned fallback price dataset, used for any
// symbol the remote API did not return. Injectable so it can be replaced
// without touching the service.
var FallbackTableV1 = map[string]float64{
	"SOL":  ReferenceSOLPrice,
	"USDC": 1.00,
	"USDT": 1.00,
	"BTC":  64000.00,
	"ETH":  3500.00,
	"RAY":  0.54,
	"SRM":  0.22,
	"BONK": 0.00002,
	"SAMO": 0.015,
	"WSOL": ReferenceSOLPrice,
}

// symbolToID maps ticker symbols to the remote API's coin identifiers
var symbolToID = map[string]string{
	"SOL":  "solana",
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"USDC": "usd-coin",
	"USDT": "tether",
	"RAY":  "raydium",
	"SRM":  "serum",
	"BONK": "bonk",
	"SAMO": "samoyedcoin",
}

// Service resolves symbol prices. Lookups never fail: every requested symbol
// gets a price, falling back through the table to DefaultUnknownPrice.
type Service struct {
	apiKey   string
	apiBase  string
	http     *http.Client
	cache    cache.Store
	fallback map[string]float64
	logger   *logging.Logger
}

// NewService creates a pricing service. An empty apiKey disables remote
// lookups; fallback is normally FallbackTableV1.
func NewService(apiKey string, priceCache cache.Store, fallback map[string]float64) *Service {
	return &Service{
		apiKey:   apiKey,
		apiBase:  defaultAPIBase,
		http:     &http.Client{Timeout: 10 * time.Second},
		cache:    priceCache,
		fallback: fallback,
		logger:   logging.Global().WithField("component", "pricing"),
	}
}

// Prices returns a USD price for every requested symbol, keyed by uppercased
// symbol. Results are cached per requested symbol set, so a different set is
// always recomputed rather than served from another set's entry.
func (s *Service) Prices(ctx context.Context, symbols []string) map[string]float64 {
	if len(symbols) == 0 {
		return map[string]float64{}
	}

	cacheKey := priceCacheKey(symbols)

	var cached map[string]float64
	if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return cached
	}

	prices := map[string]float64{}
	if s.apiKey != "" {
		prices = s.fetchRemote(ctx, symbols)
	}

	// Fill gaps from the fallback table, then the nominal default
	for _, symbol := range symbols {
		upper := strings.ToUpper(symbol)
		if _, ok := prices[upper]; ok {
			continue
		}
		if price, ok := s.fallback[upper]; ok {
			prices[upper] = price
		} else {
			prices[upper] = DefaultUnknownPrice
		}
	}

	if err := s.cache.Set(ctx, cacheKey, prices); err != nil {
		s.logger.WithError(err).Warn("Failed to cache prices")
	}
	return prices
}

// fetchRemote performs one batch price lookup. Failures are logged and
// return whatever subset was resolved, never an error.
func (s *Service) fetchRemote(ctx context.Context, symbols []string) map[string]float64 {
	prices := map[string]float64{}

	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		upper := strings.ToUpper(symbol)
		if id, ok := symbolToID[upper]; ok {
			ids = append(ids, id)
			idToSymbol[id] = upper
		}
	}
	if len(ids) == 0 {
		return prices
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	query.Set("x_cg_demo_api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"?"+query.Encode(), nil)
	if err != nil {
		s.logger.WithError(err).Error("Failed to build price request")
		return prices
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Price API request failed")
		return prices
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.WithField("status", resp.StatusCode).Error("Price API returned non-OK status")
		return prices
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read price response")
		return prices
	}

	var body map[string]map[string]float64
	if err := json.Unmarshal(data, &body); err != nil {
		s.logger.WithError(err).Error("Failed to decode price response")
		return prices
	}

	for id, entry := range body {
		symbol, ok := idToSymbol[id]
		if !ok {
			continue
		}
		if usd, ok := entry["usd"]; ok {
			prices[symbol] = usd
		}
	}
	return prices
}

// priceCacheKey derives a stable cache key from the requested symbol set, so
// the composite TTL only ever applies to an identical set.
func priceCacheKey(symbols []string) string {
	upper := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		u := strings.ToUpper(symbol)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		upper = append(upper, u)
	}
	sort.Strings(upper)
	return fmt.Sprintf("prices:%s", strings.Join(upper, ","))
}
