// Package registry resolves token mints to display metadata using a remotely
// fetched token directory with a builtin fallback.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solana-scanner/internal/cache"
	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/retry"
)

// Well-known mints
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// SOLLogoURI is reused for the native holding in every portfolio
	SOLLogoURI = "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/So11111111111111111111111111111111111111112/logo.png"

	// DefaultDecimals is assumed for mints missing from the directory
	DefaultDecimals = 9

	// UnknownSymbol marks tokens the directory could not name
	UnknownSymbol = "???"

	directoryCacheKey = "token_list"
)

// TokenInfo is one directory entry, keyed by mint address
type TokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	LogoURI  string `json:"logoURI"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// Directory maps mint addresses to token info
type Directory map[string]TokenInfo

// BuiltinDirectory is the versioned fallback used when the remote token list
// is unreachable. It covers the native wrapped token and one stablecoin.
var BuiltinDirectory = Directory{
	WrappedSOLMint: {
		Name:     "Wrapped SOL",
		Symbol:   "wSOL",
		LogoURI:  SOLLogoURI,
		Address:  WrappedSOLMint,
		Decimals: 9,
	},
	USDCMint: {
		Name:     "USD Coin",
		Symbol:   "USDC",
		LogoURI:  "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v/logo.png",
		Address:  USDCMint,
		Decimals: 6,
	},
}

// Service resolves mint metadata. Lookups never fail: unknown mints get a
// synthesized placeholder, and directory load failures fall back to the
// builtin entries.
type Service struct {
	listURL       string
	http          *http.Client
	metadataCache cache.Store
	listCache     cache.Store
	builtin       Directory
	retryCfg      retry.Config
	logger        *logging.Logger
}

// NewService creates a registry service. builtin is the fallback directory,
// normally BuiltinDirectory.
func NewService(listURL string, metadataCache, listCache cache.Store, builtin Directory) *Service {
	return &Service{
		listURL:       listURL,
		http:          &http.Client{Timeout: 15 * time.Second},
		metadataCache: metadataCache,
		listCache:     listCache,
		builtin:       builtin,
		retryCfg:      retry.DefaultConfig(),
		logger:        logging.Global().WithField("component", "token-registry"),
	}
}

// Metadata resolves display metadata for a mint. The result is cached per
// mint for the metadata cache's TTL.
func (s *Service) Metadata(ctx context.Context, mint string) models.TokenMetadata {
	cacheKey := "token_" + mint

	var cached models.TokenMetadata
	if found, err := s.metadataCache.Get(ctx, cacheKey, &cached); err == nil && found {
		return cached
	}

	directory := s.directory(ctx)

	token, ok := directory[mint]
	if !ok {
		token = TokenInfo{
			Name:     placeholderName(mint),
			Symbol:   UnknownSymbol,
			Address:  mint,
			Decimals: DefaultDecimals,
		}
	}

	meta := models.TokenMetadata{
		Name:     token.Name,
		Symbol:   token.Symbol,
		Logo:     token.LogoURI,
		Address:  mint,
		Decimals: token.Decimals,
	}
	if meta.Name == "" {
		meta.Name = placeholderName(mint)
	}
	if meta.Symbol == "" {
		meta.Symbol = UnknownSymbol
	}

	if err := s.metadataCache.Set(ctx, cacheKey, meta); err != nil {
		s.logger.WithError(err).Warn("Failed to cache token metadata")
	}
	return meta
}

// directory returns the mint directory, loading it from the remote token list
// on a cold cache and degrading to the builtin entries on failure.
func (s *Service) directory(ctx context.Context) Directory {
	var cached Directory
	if found, err := s.listCache.Get(ctx, directoryCacheKey, &cached); err == nil && found {
		return cached
	}

	directory, err := s.fetchDirectory(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load token list, using builtin directory")
		return s.builtin
	}

	if err := s.listCache.Set(ctx, directoryCacheKey, directory); err != nil {
		s.logger.WithError(err).Warn("Failed to cache token list")
	}
	return directory
}

func (s *Service) fetchDirectory(ctx context.Context) (Directory, error) {
	var tokens []TokenInfo

	err := retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL, nil)
		if err != nil {
			return err
		}

		resp, err := s.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("token list returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &tokens)
	})
	if err != nil {
		return nil, err
	}

	directory := make(Directory, len(tokens))
	for _, token := range tokens {
		if token.Address == "" {
			continue
		}
		directory[token.Address] = token
	}

	s.logger.WithField("tokens", len(directory)).Info("Token directory loaded")
	return directory, nil
}

// placeholderName synthesizes a display name from a truncated mint prefix
func placeholderName(mint string) string {
	prefix := mint
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return fmt.Sprintf("Unknown Token (%s...)", prefix)
}
