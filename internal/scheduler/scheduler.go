// Package scheduler drives the periodic background scan over tracked
// addresses.
package scheduler

import (
	"context"
	"time"

	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/storage"
)

// Refresher is the subset of the refresh pipeline the scanner drives
type Refresher interface {
	RefreshLite(ctx context.Context, address string) models.AccountRecord
}

// Scheduler periodically walks the tracked address list and pulls in
// addresses the store has not seen yet. Each pass runs to completion, then
// the scheduler sleeps the full interval; a slow pass stretches the cycle
// rather than overlapping the next one.
type Scheduler struct {
	source   storage.AddressSource
	refresh  Refresher
	store    storage.AccountStore
	interval time.Duration
	logger   *logging.Logger
}

// New creates a scheduler over the given address source
func New(source storage.AddressSource, refresh Refresher, store storage.AccountStore, interval time.Duration) *Scheduler {
	return &Scheduler{
		source:   source,
		refresh:  refresh,
		store:    store,
		interval: interval,
		logger:   logging.Global().WithField("component", "scheduler"),
	}
}

// Run scans immediately, then loops until ctx is canceled
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.WithField("interval", s.interval.String()).Info("Background scanner started")

	for {
		s.scan(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Background scanner stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

// scan runs one pass over the source. Addresses already in the store are
// left alone; their records refresh on demand through the pipeline. New
// addresses get the lite pass, which stores a record without broadcasting so
// background discovery never spams subscribers.
func (s *Scheduler) scan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Scan pass panicked")
		}
	}()

	addresses, err := s.source.Addresses(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list addresses, skipping pass")
		return
	}

	start := time.Now()
	added := 0
	for _, address := range addresses {
		if ctx.Err() != nil {
			return
		}
		if s.store.Has(address) {
			continue
		}
		s.refresh.RefreshLite(ctx, address)
		added++
	}

	s.logger.WithFields(map[string]any{
		"addresses": len(addresses),
		"added":     added,
		"elapsed":   time.Since(start).String(),
	}).Info("Scan pass complete")
}
