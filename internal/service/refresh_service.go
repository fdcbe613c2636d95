package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/pricing"
	"github.com/solana-scanner/internal/registry"
	"github.com/solana-scanner/internal/storage"
	"github.com/solana-scanner/internal/types"
)

// Broadcaster delivers account events to connected subscribers. The hub
// implements it; tests use a recording stub.
type Broadcaster interface {
	Broadcast(event models.Event)
}

// RefreshService runs the staged refresh pipeline. Each stage stores a fuller
// record and broadcasts it, so subscribers watch an account fill in rather
// than waiting for the full scan. Concurrent refreshes of the same address
// are not serialized: whichever finishes a stage last wins.
type RefreshService struct {
	accounts *AccountService
	registry *registry.Service
	pricing  *pricing.Service
	security *SecurityService
	store    storage.AccountStore
	history  storage.HistoryStore
	hub      Broadcaster
	logger   *logging.Logger
	now      func() time.Time
}

// NewRefreshService wires the pipeline
func NewRefreshService(
	accounts *AccountService,
	reg *registry.Service,
	prices *pricing.Service,
	security *SecurityService,
	store storage.AccountStore,
	history storage.HistoryStore,
	hub Broadcaster,
) *RefreshService {
	return &RefreshService{
		accounts: accounts,
		registry: reg,
		pricing:  prices,
		security: security,
		store:    store,
		history:  history,
		hub:      hub,
		logger:   logging.Global().WithField("component", "refresh-service"),
		now:      time.Now,
	}
}

// SetClock overrides the time source, for tests
func (s *RefreshService) SetClock(now func() time.Time) {
	s.now = now
}

// MinimalRecord builds the placeholder stored when an unknown address is
// first requested, before any chain data has arrived
func (s *RefreshService) MinimalRecord(address string) models.AccountRecord {
	return models.AccountRecord{
		Address:      address,
		LastUpdated:  s.now(),
		LoadingStage: types.StageBasicInfo,
	}
}

// Refresh runs the full four-stage pipeline for one address, storing and
// broadcasting after every stage
func (s *RefreshService) Refresh(ctx context.Context, address string) models.AccountRecord {
	log := s.logger.WithField("address", address)
	log.Info("Starting account refresh")

	// Stage 1: native balance, with a one-item portfolio priced at the
	// reference rate until real prices arrive in stage 4
	balance := s.accounts.Balance(ctx, address)
	record := models.AccountRecord{
		Address:      address,
		Balance:      balance,
		Portfolio:    []models.Holding{nativeHolding(balance)},
		LastUpdated:  s.now(),
		LoadingStage: types.StageBasicInfo,
	}
	s.publish(record)

	// Stage 2: transaction history
	txs := s.accounts.Transactions(ctx, address, DefaultTransactionLimit)
	record.RecentTransactions = txs
	record.LastUpdated = s.now()
	record.LoadingStage = types.StageTransactions
	s.publish(record)

	// Stage 3: full portfolio, token positions unpriced. The native position
	// leads and keeps its reference valuation.
	tokenAccounts := s.accounts.TokenAccounts(ctx, address)
	portfolio := make([]models.Holding, 0, len(tokenAccounts)+1)
	portfolio = append(portfolio, nativeHolding(record.Balance))
	for _, ta := range tokenAccounts {
		if ta.Amount == 0 {
			continue
		}
		meta := s.registry.Metadata(ctx, ta.Mint)
		decimals := ta.Decimals
		if decimals == 0 && meta.Decimals != 0 {
			decimals = meta.Decimals
		}
		portfolio = append(portfolio, models.Holding{
			Type:    types.HoldingToken,
			Mint:    ta.Mint,
			Name:    meta.Name,
			Symbol:  meta.Symbol,
			Balance: float64(ta.Amount) / pow10(decimals),
			Logo:    meta.Logo,
		})
	}
	record.Portfolio = portfolio
	record.LastUpdated = s.now()
	record.LoadingStage = types.StageTokens
	s.publish(record)

	// Stage 4: prices, valuation, assets, security, history. Unresolved
	// tokens stay out of the price request and keep a zero valuation.
	symbols := make([]string, 0, len(portfolio))
	for _, h := range portfolio {
		if h.Symbol == registry.UnknownSymbol {
			continue
		}
		symbols = append(symbols, h.Symbol)
	}
	prices := s.pricing.Prices(ctx, symbols)

	// Price a copy so the record published at the previous stage is not
	// mutated under subscribers still holding it
	valued := make([]models.Holding, len(record.Portfolio))
	copy(valued, record.Portfolio)

	total := 0.0
	for i := range valued {
		valued[i].USDValue = valued[i].Balance * prices[normalizeSymbol(valued[i].Symbol)]
		total += valued[i].USDValue
	}
	sort.SliceStable(valued, func(i, j int) bool {
		return valued[i].USDValue > valued[j].USDValue
	})
	record.Portfolio = valued

	record.TotalValue = total
	record.NFTs = s.accounts.NFTs(ctx, address)

	security := s.security.Assess(ctx, address, txs)
	record.Security = &security

	record.LastUpdated = s.now()
	record.LoadingStage = types.StageComplete

	s.history.Append(address, models.HistoricalPoint{Timestamp: record.LastUpdated, Value: total})
	record.HistoricalData = s.history.List(address)

	s.publish(record)

	log.WithFields(map[string]any{
		"holdings":    len(record.Portfolio),
		"total_value": record.TotalValue,
	}).Info("Account refresh complete")
	return record
}

// RefreshLite updates balance, transactions and the security report without
// touching the portfolio and without broadcasting. Used by the background
// scanner for addresses nobody is watching.
func (s *RefreshService) RefreshLite(ctx context.Context, address string) models.AccountRecord {
	record, ok := s.store.Get(address)
	if !ok {
		record = s.MinimalRecord(address)
	}

	record.Balance = s.accounts.Balance(ctx, address)
	record.RecentTransactions = s.accounts.Transactions(ctx, address, DefaultTransactionLimit)

	security := s.security.Assess(ctx, address, record.RecentTransactions)
	record.Security = &security

	record.LastUpdated = s.now()
	s.store.Put(record)
	return record
}

// publish stores the record and pushes it to subscribers
func (s *RefreshService) publish(record models.AccountRecord) {
	s.store.Put(record)
	s.hub.Broadcast(models.Event{Type: models.EventAccountUpdate, Data: record})
}

// nativeHolding builds the SOL position valued at the fixed reference price
func nativeHolding(balance float64) models.Holding {
	return models.Holding{
		Type:     types.HoldingNative,
		Name:     "Solana",
		Symbol:   "SOL",
		Balance:  balance,
		USDValue: balance * pricing.ReferenceSOLPrice,
		Logo:     registry.SOLLogoURI,
	}
}

// normalizeSymbol matches the pricing service's uppercase keys
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(symbol)
}

func pow10(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
