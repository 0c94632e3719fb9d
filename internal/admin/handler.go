// Package admin exposes the manual follow-up endpoints for transfers the
// engine could not apply.
package admin

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tapi/api/internal/logger"
	"tapi/api/internal/repository"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// ListUnmatched handles GET /v1/admin/unmatched?limit=N
func (h *Handler) ListUnmatched(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}

	list, err := repository.ListUnmatchedTransactions(r.Context(), h.db, limit)
	if err != nil {
		logger.Errorf("[ADMIN] list unmatched: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list unmatched transactions")
		return
	}
	if list == nil {
		list = []repository.UnmatchedRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"unmatched": list, "count": len(list)})
}

// GetTransaction handles GET /v1/admin/transactions/{transactionID}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("transactionID")
	if id == "" {
		respondError(w, http.StatusBadRequest, "transaction id is required")
		return
	}

	tx, err := repository.BankTransactionByTxID(r.Context(), h.db, id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		logger.Errorf("[ADMIN] get transaction %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "could not load transaction")
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		logger.Errorf("[HEALTH] database ping: %v", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
