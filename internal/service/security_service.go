package service

import (
	"context"
	"fmt"
	"time"

	"github.com/solana-scanner/internal/cache"
	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/rpc"
	"github.com/solana-scanner/internal/types"
)

const (
	// riskPerApproval is the score added for each token account with an
	// active delegate
	riskPerApproval = 10

	// newWalletAge is the age below which a wallet is flagged as new
	newWalletAge = 7 * 24 * time.Hour
)

// SecurityService runs heuristic checks over an address and scores the result.
// Reports are cached; a fresh scan only happens when the cached one expires.
type SecurityService struct {
	client rpc.SolanaClient
	cache  cache.Store
	logger *logging.Logger
	now    func() time.Time
}

// NewSecurityService creates the security scanner with the given report cache
func NewSecurityService(client rpc.SolanaClient, securityCache cache.Store) *SecurityService {
	return &SecurityService{
		client: client,
		cache:  securityCache,
		logger: logging.Global().WithField("component", "security-service"),
		now:    time.Now,
	}
}

// SetClock overrides the time source, for tests
func (s *SecurityService) SetClock(now func() time.Time) {
	s.now = now
}

// Assess returns the security report for an address. txs is the signature
// history already fetched by the caller; only when it is empty does the scan
// fetch its own deeper slice. A failed scan still returns a report carrying
// whatever checks completed, plus a scan_error issue.
func (s *SecurityService) Assess(ctx context.Context, address string, txs []models.TransactionSignature) models.SecurityReport {
	key := "security_" + address

	var cached models.SecurityReport
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).Warn("Security cache read failed")
	} else if found {
		return cached
	}

	report := s.scan(ctx, address, txs)

	if err := s.cache.Set(ctx, key, report); err != nil {
		s.logger.WithError(err).Warn("Security cache write failed")
	}
	return report
}

func (s *SecurityService) scan(ctx context.Context, address string, txs []models.TransactionSignature) models.SecurityReport {
	report := models.SecurityReport{
		Status:      types.StatusSecure,
		Issues:      []models.SecurityIssue{},
		LastChecked: s.now(),
	}

	if err := s.runChecks(ctx, address, txs, &report); err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Security scan incomplete")
		report.Issues = append(report.Issues, models.SecurityIssue{
			Type:        "scan_error",
			Severity:    types.SeverityInfo,
			Description: "Security scan could not complete all checks",
			Details:     err.Error(),
		})
	}

	if report.RiskScore < 0 {
		report.RiskScore = 0
	}
	if report.RiskScore > 100 {
		report.RiskScore = 100
	}

	return report
}

// runChecks appends issues to the report as checks complete, returning the
// first chain error so partial results survive a mid-scan failure
func (s *SecurityService) runChecks(ctx context.Context, address string, txs []models.TransactionSignature, report *models.SecurityReport) error {
	accounts, err := s.client.GetTokenAccountsByOwner(ctx, address)
	if err != nil {
		return fmt.Errorf("token approvals check: %w", err)
	}

	approvals := 0
	for _, a := range accounts {
		if a.Delegate != "" && a.Delegate != address {
			approvals++
		}
	}
	if approvals > 0 {
		report.Status = types.StatusWarning
		report.RiskScore += approvals * riskPerApproval
		report.Issues = append(report.Issues, models.SecurityIssue{
			Type:        "token_approvals",
			Severity:    types.SeverityWarning,
			Description: fmt.Sprintf("%d token account(s) have an active delegate", approvals),
			Details:     "A delegate can transfer tokens from the account without a signature from the owner",
		})
	}

	if len(txs) == 0 {
		deeper, err := s.client.GetSignaturesForAddress(ctx, address, SecurityTransactionLimit)
		if err != nil {
			return fmt.Errorf("transaction history check: %w", err)
		}
		txs = deeper
	}

	if len(txs) == 0 {
		report.Issues = append(report.Issues, models.SecurityIssue{
			Type:        "inactive_wallet",
			Severity:    types.SeverityInfo,
			Description: "Wallet has no recent transaction history",
		})
	}

	// With no usable block times the age stays zero, so a history of
	// timestamp-less signatures still reads as a brand-new wallet
	var age time.Duration
	if oldest := oldestBlockTime(txs); oldest != nil {
		age = s.now().Sub(time.Unix(*oldest, 0))
	}
	if age < newWalletAge {
		report.Issues = append(report.Issues, models.SecurityIssue{
			Type:        "new_wallet",
			Severity:    types.SeverityInfo,
			Description: "Wallet is less than a week old",
			Details:     fmt.Sprintf("Oldest visible transaction is %.1f days old", age.Hours()/24),
		})
	}

	return nil
}

// oldestBlockTime returns the earliest block time in the history, or nil when
// none of the signatures carry one
func oldestBlockTime(txs []models.TransactionSignature) *int64 {
	var oldest *int64
	for _, tx := range txs {
		if tx.BlockTime == nil {
			continue
		}
		if oldest == nil || *tx.BlockTime < *oldest {
			oldest = tx.BlockTime
		}
	}
	return oldest
}
