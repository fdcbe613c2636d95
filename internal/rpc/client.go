// Package rpc implements the Solana JSON-RPC client used by the fetchers.
// Only the methods and response fields the scanner consumes are modeled.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
)

const (
	// TokenProgramID is the SPL token program; token account queries are
	// filtered to accounts owned by it.
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// LamportsPerSOL converts the smallest native unit to display units
	LamportsPerSOL = 1_000_000_000
)

// SolanaClient defines the chain operations needed by the service layer
type SolanaClient interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]models.TransactionSignature, error)
	GetAssetsByOwner(ctx context.Context, owner string, limit int) ([]models.NFT, error)
	SupportsAssets() bool
}

// TokenAccount is one parsed SPL token account owned by an address
type TokenAccount struct {
	Pubkey   string
	Mint     string
	Owner    string
	Delegate string
	Amount   uint64
	Decimals int
}

// Client calls a Solana JSON-RPC endpoint over HTTP
type Client struct {
	endpoint string
	http     *http.Client
	logger   *logging.Logger
}

// NewClient creates a client for the given RPC endpoint
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   logging.Global().WithField("component", "solana-rpc"),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

// call performs one JSON-RPC request and unmarshals the result field
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if envelope.Result == nil {
		return fmt.Errorf("%s response missing result", method)
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// GetBalance returns the lamport balance of an address
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []any{address}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// tokenAccountEntry models the jsonParsed encoding of getTokenAccountsByOwner
type tokenAccountEntry struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed struct {
				Info struct {
					Mint        string `json:"mint"`
					Owner       string `json:"owner"`
					Delegate    string `json:"delegate"`
					TokenAmount struct {
						Amount   string `json:"amount"`
						Decimals int    `json:"decimals"`
					} `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

// GetTokenAccountsByOwner returns the SPL token accounts owned by an address.
// Entries that fail to parse are skipped with a log line rather than failing
// the whole call.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error) {
	params := []any{
		owner,
		map[string]string{"programId": TokenProgramID},
		map[string]string{"encoding": "jsonParsed"},
	}

	var result struct {
		Value []json.RawMessage `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccount, 0, len(result.Value))
	for _, raw := range result.Value {
		var entry tokenAccountEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			c.logger.WithError(err).Warn("Skipping malformed token account entry")
			continue
		}

		info := entry.Account.Data.Parsed.Info
		if info.Mint == "" {
			c.logger.WithField("pubkey", entry.Pubkey).Warn("Skipping token account without mint")
			continue
		}

		amount, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			c.logger.WithFields(map[string]any{
				"pubkey": entry.Pubkey,
				"amount": info.TokenAmount.Amount,
			}).Warn("Skipping token account with unparseable amount")
			continue
		}

		accounts = append(accounts, TokenAccount{
			Pubkey:   entry.Pubkey,
			Mint:     info.Mint,
			Owner:    info.Owner,
			Delegate: info.Delegate,
			Amount:   amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}

	return accounts, nil
}

// GetSignaturesForAddress returns up to limit recent signatures, newest first
func (c *Client) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]models.TransactionSignature, error) {
	params := []any{address, map[string]int{"limit": limit}}

	var result []models.TransactionSignature
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// assetEntry models the subset of a DAS asset entry the scanner keeps
type assetEntry struct {
	ID      string `json:"id"`
	Content struct {
		Metadata struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
}

// GetAssetsByOwner returns the NFTs owned by an address. Only functional on
// endpoints implementing the digital asset API; callers should check
// SupportsAssets first.
func (c *Client) GetAssetsByOwner(ctx context.Context, owner string, limit int) ([]models.NFT, error) {
	params := map[string]any{
		"ownerAddress":   owner,
		"page":           1,
		"limit":          limit,
		"displayOptions": map[string]bool{"showFungible": false},
	}

	var result struct {
		Items []assetEntry `json:"items"`
	}
	if err := c.call(ctx, "getAssetsByOwner", params, &result); err != nil {
		return nil, err
	}

	nfts := make([]models.NFT, 0, len(result.Items))
	for _, item := range result.Items {
		nfts = append(nfts, models.NFT{
			ID:     item.ID,
			Name:   item.Content.Metadata.Name,
			Symbol: item.Content.Metadata.Symbol,
			Image:  item.Content.Links.Image,
		})
	}
	return nfts, nil
}

// SupportsAssets reports whether the endpoint implements getAssetsByOwner.
// Detection is by URL substring, matching how the endpoint is provisioned.
func (c *Client) SupportsAssets() bool {
	return strings.Contains(c.endpoint, "helius")
}
