package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcFixture serves canned JSON-RPC responses keyed by method name
func rpcFixture(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		body, ok := responses[req.Method]
		if !ok {
			http.Error(w, "unexpected method "+req.Method, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestGetBalance(t *testing.T) {
	srv := rpcFixture(t, map[string]string{
		"getBalance": `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":2500000000}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	lamports, err := c.GetBalance(context.Background(), "someaddress")
	require.NoError(t, err)
	assert.Equal(t, uint64(2500000000), lamports)
}

func TestGetBalanceErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"rpc error", `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`},
		{"missing result", `{"jsonrpc":"2.0","id":1}`},
		{"malformed json", `{"jsonrpc":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := rpcFixture(t, map[string]string{"getBalance": tt.body})
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			_, err := c.GetBalance(context.Background(), "someaddress")
			assert.Error(t, err)
		})
	}
}

func TestGetTokenAccountsByOwner(t *testing.T) {
	srv := rpcFixture(t, map[string]string{
		"getTokenAccountsByOwner": `{"jsonrpc":"2.0","id":1,"result":{"value":[
			{"pubkey":"acc1","account":{"data":{"parsed":{"info":{
				"mint":"MintAAA","owner":"owner1","delegate":"delegateX",
				"tokenAmount":{"amount":"1500000","decimals":6}}}}}},
			{"pubkey":"acc2","account":{"data":{"parsed":{"info":{
				"mint":"MintBBB","owner":"owner1",
				"tokenAmount":{"amount":"0","decimals":9}}}}}},
			{"pubkey":"acc3","account":{"data":{"parsed":{"info":{
				"mint":"MintCCC","owner":"owner1",
				"tokenAmount":{"amount":"not-a-number","decimals":9}}}}}}
		]}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	accounts, err := c.GetTokenAccountsByOwner(context.Background(), "owner1")
	require.NoError(t, err)

	// acc3 has an unparseable amount and is skipped
	require.Len(t, accounts, 2)
	assert.Equal(t, TokenAccount{
		Pubkey:   "acc1",
		Mint:     "MintAAA",
		Owner:    "owner1",
		Delegate: "delegateX",
		Amount:   1500000,
		Decimals: 6,
	}, accounts[0])
	assert.Equal(t, uint64(0), accounts[1].Amount)
	assert.Empty(t, accounts[1].Delegate)
}

func TestGetSignaturesForAddress(t *testing.T) {
	srv := rpcFixture(t, map[string]string{
		"getSignaturesForAddress": `{"jsonrpc":"2.0","id":1,"result":[
			{"signature":"sig1","slot":200,"blockTime":1700000100,"confirmationStatus":"finalized"},
			{"signature":"sig2","slot":100,"blockTime":1700000000,"confirmationStatus":"finalized"}
		]}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	sigs, err := c.GetSignaturesForAddress(context.Background(), "someaddress", 10)
	require.NoError(t, err)

	require.Len(t, sigs, 2)
	assert.Equal(t, "sig1", sigs[0].Signature)
	require.NotNil(t, sigs[1].BlockTime)
	assert.Equal(t, int64(1700000000), *sigs[1].BlockTime)
}

func TestGetAssetsByOwner(t *testing.T) {
	srv := rpcFixture(t, map[string]string{
		"getAssetsByOwner": `{"jsonrpc":"2.0","id":1,"result":{"items":[
			{"id":"asset1","content":{"metadata":{"name":"Cool NFT","symbol":"COOL"},"links":{"image":"https://img.example/1.png"}}}
		]}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	nfts, err := c.GetAssetsByOwner(context.Background(), "owner1", 50)
	require.NoError(t, err)

	require.Len(t, nfts, 1)
	assert.Equal(t, "asset1", nfts[0].ID)
	assert.Equal(t, "Cool NFT", nfts[0].Name)
	assert.Equal(t, "https://img.example/1.png", nfts[0].Image)
}

func TestSupportsAssets(t *testing.T) {
	assert.True(t, NewClient("https://mainnet.helius-rpc.com/?api-key=abc", time.Second).SupportsAssets())
	assert.False(t, NewClient("https://api.mainnet-beta.solana.com", time.Second).SupportsAssets())
}
