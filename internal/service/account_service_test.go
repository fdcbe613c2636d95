package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solana-scanner/internal/cache"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/rpc"
)

// fakeClient is a scriptable SolanaClient shared by the service tests
type fakeClient struct {
	balance    uint64
	balanceErr error

	tokenAccounts []rpc.TokenAccount
	tokenErr      error

	signatures []models.TransactionSignature
	sigErr     error

	nfts   []models.NFT
	nftErr error
	assets bool

	balanceCalls int
	tokenCalls   int
	sigCalls     int
	nftCalls     int
}

func (f *fakeClient) GetBalance(context.Context, string) (uint64, error) {
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeClient) GetTokenAccountsByOwner(context.Context, string) ([]rpc.TokenAccount, error) {
	f.tokenCalls++
	return f.tokenAccounts, f.tokenErr
}

func (f *fakeClient) GetSignaturesForAddress(_ context.Context, _ string, limit int) ([]models.TransactionSignature, error) {
	f.sigCalls++
	if f.sigErr != nil {
		return nil, f.sigErr
	}
	if len(f.signatures) > limit {
		return f.signatures[:limit], nil
	}
	return f.signatures, nil
}

func (f *fakeClient) GetAssetsByOwner(context.Context, string, int) ([]models.NFT, error) {
	f.nftCalls++
	return f.nfts, f.nftErr
}

func (f *fakeClient) SupportsAssets() bool {
	return f.assets
}

func newTestCache() *cache.Memory {
	return cache.NewMemory(time.Hour)
}

func TestBalanceConversion(t *testing.T) {
	client := &fakeClient{balance: 1_500_000_000}
	svc := NewAccountService(client, newTestCache())

	assert.Equal(t, 1.5, svc.Balance(context.Background(), "addr"))
}

func TestBalanceDefaultsToZeroOnError(t *testing.T) {
	client := &fakeClient{balanceErr: errors.New("rpc down")}
	svc := NewAccountService(client, newTestCache())

	assert.Equal(t, 0.0, svc.Balance(context.Background(), "addr"))
}

func TestTokenAccountsCachedPerAddress(t *testing.T) {
	client := &fakeClient{tokenAccounts: []rpc.TokenAccount{{Mint: "mint1", Amount: 5}}}
	svc := NewAccountService(client, newTestCache())

	first := svc.TokenAccounts(context.Background(), "addr")
	second := svc.TokenAccounts(context.Background(), "addr")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.tokenCalls)
}

func TestTokenAccountsEmptyOnError(t *testing.T) {
	client := &fakeClient{tokenErr: errors.New("rpc down")}
	svc := NewAccountService(client, newTestCache())

	assert.Empty(t, svc.TokenAccounts(context.Background(), "addr"))
}

func TestTransactionsEmptyOnError(t *testing.T) {
	client := &fakeClient{sigErr: errors.New("rpc down")}
	svc := NewAccountService(client, newTestCache())

	assert.Empty(t, svc.Transactions(context.Background(), "addr", DefaultTransactionLimit))
}

func TestNFTsSkippedWithoutAssetSupport(t *testing.T) {
	client := &fakeClient{nfts: []models.NFT{{ID: "nft1"}}, assets: false}
	svc := NewAccountService(client, newTestCache())

	assert.Empty(t, svc.NFTs(context.Background(), "addr"))
	assert.Zero(t, client.nftCalls)
}

func TestNFTsFetchedWithAssetSupport(t *testing.T) {
	client := &fakeClient{nfts: []models.NFT{{ID: "nft1", Name: "Art"}}, assets: true}
	svc := NewAccountService(client, newTestCache())

	nfts := svc.NFTs(context.Background(), "addr")
	assert.Len(t, nfts, 1)
	assert.Equal(t, "Art", nfts[0].Name)
}

func TestNFTsEmptyOnError(t *testing.T) {
	client := &fakeClient{nftErr: errors.New("rpc down"), assets: true}
	svc := NewAccountService(client, newTestCache())

	assert.Empty(t, svc.NFTs(context.Background(), "addr"))
}
