// Package service implements the account refresh pipeline: the fetchers that
// wrap the chain client, the security assessment, and the staged refresh that
// assembles account records and broadcasts progress.
package service

import (
	"context"

	"github.com/solana-scanner/internal/cache"
	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/rpc"
)

const (
	// DefaultTransactionLimit bounds the signature history fetched per refresh
	DefaultTransactionLimit = 10

	// SecurityTransactionLimit bounds the deeper history used for security scans
	SecurityTransactionLimit = 20

	// NFTLimit bounds the assets fetched per refresh
	NFTLimit = 50
)

// AccountService wraps the chain client with degradation: every fetch returns
// a usable zero value on failure so a flaky RPC endpoint never aborts a
// refresh. Callers that need the raw error use the client directly.
type AccountService struct {
	client rpc.SolanaClient
	cache  cache.Store
	logger *logging.Logger
}

// NewAccountService creates the fetcher layer. The cache holds token account
// lists keyed per address.
func NewAccountService(client rpc.SolanaClient, metadataCache cache.Store) *AccountService {
	return &AccountService{
		client: client,
		cache:  metadataCache,
		logger: logging.Global().WithField("component", "account-service"),
	}
}

// Balance returns the SOL balance of an address, 0 on failure
func (s *AccountService) Balance(ctx context.Context, address string) float64 {
	lamports, err := s.client.GetBalance(ctx, address)
	if err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Balance fetch failed, defaulting to 0")
		return 0
	}
	return float64(lamports) / rpc.LamportsPerSOL
}

// TokenAccounts returns the SPL token accounts owned by an address, cached per
// address. Returns an empty slice on failure.
func (s *AccountService) TokenAccounts(ctx context.Context, address string) []rpc.TokenAccount {
	key := "token_accounts_" + address

	var cached []rpc.TokenAccount
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).Warn("Token account cache read failed")
	} else if found {
		return cached
	}

	accounts, err := s.client.GetTokenAccountsByOwner(ctx, address)
	if err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Token account fetch failed")
		return []rpc.TokenAccount{}
	}

	if err := s.cache.Set(ctx, key, accounts); err != nil {
		s.logger.WithError(err).Warn("Token account cache write failed")
	}
	return accounts
}

// Transactions returns up to limit recent signatures for an address, newest
// first. Returns an empty slice on failure. Not cached: signature history is
// the freshness signal for everything downstream.
func (s *AccountService) Transactions(ctx context.Context, address string, limit int) []models.TransactionSignature {
	txs, err := s.client.GetSignaturesForAddress(ctx, address, limit)
	if err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Signature fetch failed")
		return []models.TransactionSignature{}
	}
	return txs
}

// NFTs returns the assets owned by an address. Returns an empty slice when the
// endpoint does not implement the asset API or the fetch fails.
func (s *AccountService) NFTs(ctx context.Context, address string) []models.NFT {
	if !s.client.SupportsAssets() {
		return []models.NFT{}
	}

	nfts, err := s.client.GetAssetsByOwner(ctx, address, NFTLimit)
	if err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Asset fetch failed")
		return []models.NFT{}
	}
	return nfts
}
