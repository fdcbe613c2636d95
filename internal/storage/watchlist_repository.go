package storage

import (
	"context"
	"fmt"
)

// AddressSource supplies the set of addresses the periodic scanner tracks
type AddressSource interface {
	Addresses(ctx context.Context) ([]string, error)
}

// StaticSource is a fixed address list, used when no watchlist database is
// configured.
type StaticSource []string

// Addresses implements AddressSource
func (s StaticSource) Addresses(_ context.Context) ([]string, error) {
	return s, nil
}

// WatchlistRepository reads tracked addresses from the watchlist table
type WatchlistRepository struct {
	db *PostgresDB
}

// NewWatchlistRepository creates a watchlist repository
func NewWatchlistRepository(db *PostgresDB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Addresses implements AddressSource
func (r *WatchlistRepository) Addresses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT address FROM watchlist ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist rows: %w", err)
	}

	return addresses, nil
}

// Add inserts an address into the watchlist, ignoring duplicates
func (r *WatchlistRepository) Add(ctx context.Context, address string) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO watchlist (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`,
		address,
	)
	if err != nil {
		return fmt.Errorf("insert watchlist address: %w", err)
	}
	return nil
}
