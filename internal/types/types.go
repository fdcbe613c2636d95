// Package types provides common type definitions for the account scanner system.
package types

import "fmt"

// LoadingStage represents how far the refresh pipeline has advanced for an account.
// Stages only move forward within a single refresh invocation.
type LoadingStage string

const (
	// StageBasicInfo means only the native balance has been resolved
	StageBasicInfo LoadingStage = "basic_info"
	// StageTransactions means recent transaction history is attached
	StageTransactions LoadingStage = "transactions"
	// StageTokens means the token portfolio is resolved but unpriced
	StageTokens LoadingStage = "tokens"
	// StageComplete means prices, NFTs and the security report are in place
	StageComplete LoadingStage = "complete"
)

// SecurityStatus represents the overall outcome of a wallet security scan
type SecurityStatus string

const (
	// StatusSecure means no risk indicators were found
	StatusSecure SecurityStatus = "secure"
	// StatusWarning means at least one risk indicator was found
	StatusWarning SecurityStatus = "warning"
	// StatusCritical means a severe risk indicator was found
	StatusCritical SecurityStatus = "critical"
)

// IssueSeverity represents the severity of a single security issue
type IssueSeverity string

const (
	// SeverityInfo is informational only and does not affect the status
	SeverityInfo IssueSeverity = "info"
	// SeverityWarning indicates a condition worth the holder's attention
	SeverityWarning IssueSeverity = "warning"
	// SeverityCritical indicates an actively dangerous condition
	SeverityCritical IssueSeverity = "critical"
)

// HoldingType distinguishes native SOL from SPL token holdings
type HoldingType string

const (
	// HoldingNative is the native SOL position
	HoldingNative HoldingType = "SOL"
	// HoldingToken is an SPL token position
	HoldingToken HoldingType = "SPL"
)

// ServiceError represents a structured error from the service layer
type ServiceError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
