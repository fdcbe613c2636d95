package api

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
)

// addressPattern matches base58 Solana public keys
var addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// AccountsResponse wraps the account list endpoint payload
type AccountsResponse struct {
	Accounts any `json:"accounts"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "solana-scanner",
	})
}

// handleListAccounts returns every tracked account record
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, AccountsResponse{Accounts: s.store.List()})
}

// handleGetAccount returns the current record for one address. An address not
// seen before gets a placeholder record immediately and a background refresh;
// subsequent polls or the websocket stream pick up the filled-in stages.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	if !addressPattern.MatchString(address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress,
			"Address is not a valid Solana public key", map[string]any{"address": address})
		return
	}

	if record, ok := s.store.Get(address); ok {
		respondJSON(w, http.StatusOK, record)
		return
	}

	record := s.refresher.MinimalRecord(address)
	s.store.Put(record)

	if s.watchlist != nil {
		if err := s.watchlist.Add(r.Context(), address); err != nil {
			s.logger.WithError(err).WithField("address", address).Warn("Failed to persist address to watchlist")
		}
	}
	if !s.pool.Enqueue(address) {
		s.logger.WithField("address", address).Warn("Refresh pool rejected new address")
	}
	respondJSON(w, http.StatusOK, record)
}
