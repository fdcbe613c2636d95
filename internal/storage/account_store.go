// Package storage provides the in-memory record stores and the optional
// Postgres watchlist source.
package storage

import (
	"sync"

	"github.com/solana-scanner/internal/models"
)

// MaxHistoricalPoints bounds the per-address value history; the oldest
// points are dropped first.
const MaxHistoricalPoints = 30

// AccountStore holds the latest record per tracked address. Every write is a
// full-record replacement, so readers always observe an internally consistent
// snapshot even while a refresh is in flight.
type AccountStore interface {
	// Put replaces the record for its address
	Put(record models.AccountRecord)
	// Get returns the record for an address, if tracked
	Get(address string) (models.AccountRecord, bool)
	// Has reports whether the address is tracked
	Has(address string) bool
	// List returns a snapshot of all tracked records
	List() []models.AccountRecord
}

// HistoryStore holds the bounded per-address total-value history
type HistoryStore interface {
	// Append adds a point, dropping the oldest beyond MaxHistoricalPoints
	Append(address string, point models.HistoricalPoint)
	// List returns the points for an address in chronological order
	List(address string) []models.HistoricalPoint
}

// MemoryAccountStore is the in-process AccountStore implementation
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.AccountRecord
}

// NewMemoryAccountStore creates an empty account store
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]models.AccountRecord)}
}

// Put implements AccountStore
func (s *MemoryAccountStore) Put(record models.AccountRecord) {
	s.mu.Lock()
	s.accounts[record.Address] = record
	s.mu.Unlock()
}

// Get implements AccountStore
func (s *MemoryAccountStore) Get(address string) (models.AccountRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.accounts[address]
	return record, ok
}

// Has implements AccountStore
func (s *MemoryAccountStore) Has(address string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[address]
	return ok
}

// List implements AccountStore
func (s *MemoryAccountStore) List() []models.AccountRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]models.AccountRecord, 0, len(s.accounts))
	for _, record := range s.accounts {
		records = append(records, record)
	}
	return records
}

// MemoryHistoryStore is the in-process HistoryStore implementation
type MemoryHistoryStore struct {
	mu     sync.RWMutex
	points map[string][]models.HistoricalPoint
	limit  int
}

// NewMemoryHistoryStore creates an empty history store bounded by
// MaxHistoricalPoints.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		points: make(map[string][]models.HistoricalPoint),
		limit:  MaxHistoricalPoints,
	}
}

// Append implements HistoryStore
func (s *MemoryHistoryStore) Append(address string, point models.HistoricalPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := append(s.points[address], point)
	if len(points) > s.limit {
		points = points[len(points)-s.limit:]
	}
	s.points[address] = points
}

// List implements HistoryStore
func (s *MemoryHistoryStore) List(address string) []models.HistoricalPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.points[address]
	out := make([]models.HistoricalPoint, len(points))
	copy(out, points)
	return out
}
