// Package worker provides the bounded pool that runs fire-and-forget account
// refreshes off the request path.
package worker

import (
	"context"
	"sync"

	"github.com/solana-scanner/internal/logging"
)

// RefreshFunc performs one account refresh
type RefreshFunc func(ctx context.Context, address string)

// RefreshPool runs refreshes on a fixed set of workers fed by a bounded
// queue. When the queue is full new requests are rejected rather than queued
// unboundedly; callers treat a rejection as "try again later".
type RefreshPool struct {
	refresh RefreshFunc
	queue   chan string
	workers int
	logger  *logging.Logger

	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewRefreshPool creates a pool with the given worker count and queue size
func NewRefreshPool(refresh RefreshFunc, workers, queueSize int) *RefreshPool {
	return &RefreshPool{
		refresh: refresh,
		queue:   make(chan string, queueSize),
		workers: workers,
		logger:  logging.Global().WithField("component", "refresh-pool"),
	}
}

// Start launches the workers. They exit when ctx is canceled; Wait blocks
// until they have drained.
func (p *RefreshPool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run(ctx, i)
		}
	})
}

// Enqueue submits an address for refresh without blocking, reporting whether
// the pool accepted it
func (p *RefreshPool) Enqueue(address string) bool {
	select {
	case p.queue <- address:
		return true
	default:
		p.logger.WithField("address", address).Warn("Refresh queue full, rejecting request")
		return false
	}
}

// QueueDepth returns the number of pending refreshes
func (p *RefreshPool) QueueDepth() int {
	return len(p.queue)
}

// Wait blocks until all workers have stopped
func (p *RefreshPool) Wait() {
	p.wg.Wait()
}

func (p *RefreshPool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.logger.WithField("worker", id)
	log.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Worker stopping")
			return
		case address := <-p.queue:
			p.safeRefresh(ctx, address)
		}
	}
}

// safeRefresh isolates a panicking refresh to the one task
func (p *RefreshPool) safeRefresh(ctx context.Context, address string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(map[string]any{
				"address": address,
				"panic":   r,
			}).Error("Refresh panicked")
		}
	}()
	p.refresh(ctx, address)
}
