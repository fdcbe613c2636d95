// Package models defines the data structures shared across the scanner services.
package models

import (
	"encoding/json"
	"time"

	"github.com/solana-scanner/internal/types"
)

// AccountRecord aggregates everything known about a tracked address. Fields
// accumulate across pipeline stages; each stage stores a complete snapshot so
// readers never observe a half-written record.
type AccountRecord struct {
	Address            string                 `json:"address"`
	Balance            float64                `json:"balance"`
	LastUpdated        time.Time              `json:"lastUpdated"`
	LoadingStage       types.LoadingStage     `json:"loadingStage,omitempty"`
	Portfolio          []Holding              `json:"portfolio,omitempty"`
	RecentTransactions []TransactionSignature `json:"recentTransactions,omitempty"`
	TotalValue         float64                `json:"totalValue"`
	NFTs               []NFT                  `json:"nfts,omitempty"`
	HistoricalData     []HistoricalPoint      `json:"historicalData,omitempty"`
	Security           *SecurityReport        `json:"security,omitempty"`
}

// Holding is one line of an account's portfolio. Holdings are rebuilt from
// scratch on every refresh and never partially updated.
type Holding struct {
	Type     types.HoldingType `json:"type"`
	Mint     string            `json:"mint,omitempty"`
	Name     string            `json:"name"`
	Symbol   string            `json:"symbol"`
	Balance  float64           `json:"balance"`
	USDValue float64           `json:"usd_value"`
	Logo     string            `json:"logo"`
}

// TransactionSignature is one entry from the address's recent signature list,
// as returned by getSignaturesForAddress.
type TransactionSignature struct {
	Signature          string          `json:"signature"`
	Slot               uint64          `json:"slot"`
	BlockTime          *int64          `json:"blockTime,omitempty"`
	Err                json.RawMessage `json:"err,omitempty"`
	Memo               string          `json:"memo,omitempty"`
	ConfirmationStatus string          `json:"confirmationStatus,omitempty"`
}

// NFT is the subset of a digital-asset entry the scanner exposes.
type NFT struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Image  string `json:"image,omitempty"`
}

// HistoricalPoint records the total portfolio value observed at one refresh.
type HistoricalPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SecurityReport is the result of the heuristic wallet security scan.
type SecurityReport struct {
	Status      types.SecurityStatus `json:"status"`
	Issues      []SecurityIssue      `json:"issues"`
	RiskScore   int                  `json:"risk_score"`
	LastChecked time.Time            `json:"last_checked"`
}

// SecurityIssue is a single finding within a security report.
type SecurityIssue struct {
	Type        string              `json:"type"`
	Severity    types.IssueSeverity `json:"severity"`
	Description string              `json:"description"`
	Details     string              `json:"details"`
}

// TokenMetadata describes a token mint as resolved from the token directory.
type TokenMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Logo     string `json:"logo"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// Event is the envelope broadcast to websocket subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types delivered over the websocket channel.
const (
	EventFullUpdate    = "full_update"
	EventAccountUpdate = "account_update"
)
