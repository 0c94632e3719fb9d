package casso

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"tapi/api/internal/config"
	"tapi/api/internal/logger"
	"tapi/api/internal/metrics"
	"tapi/api/internal/reconcile"
)

// Processor reconciles a single transaction.
type Processor interface {
	Process(ctx context.Context, t reconcile.Transaction) (reconcile.Result, error)
}

type Handler struct {
	engine  Processor
	secret  string
	maxBody int64
}

func NewHandler(engine Processor, cfg *config.Config) *Handler {
	return &Handler{engine: engine, secret: cfg.CassoWebhookSecret, maxBody: cfg.WebhookMaxBodyBytes}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	metrics.WebhookRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HandleWebhook handles POST /v1/webhooks/casso.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.secret == "" {
		logger.Errorf("[WEBHOOK] %v", ErrMissingSecret)
		respondError(w, http.StatusInternalServerError, ErrMissingSecret.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		logger.Warnf("[WEBHOOK] read body: %v", err)
		respondError(w, http.StatusBadRequest, "could not read body")
		return
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		logger.Warnf("[WEBHOOK] invalid payload: %v", err)
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if env.AllTests() {
		logger.Infof("[WEBHOOK] test webhook received (%d transactions)", len(env.Data))
		respondJSON(w, http.StatusOK, map[string]string{"status": string(reconcile.StatusTestWebhook)})
		return
	}

	if err := Verify(h.secret, body, SignatureFromHeader(r.Header)); err != nil {
		logger.Warnf("[WEBHOOK] signature rejected: %v", err)
		respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	if env.Error != 0 {
		logger.Warnf("[WEBHOOK] sender reported error=%d, ignoring", env.Error)
		respondJSON(w, http.StatusOK, map[string]string{"status": string(reconcile.StatusIgnored)})
		return
	}

	for _, t := range env.Data {
		if !t.IsTest() && t.ID == "" {
			respondError(w, http.StatusBadRequest, "transaction id is required")
			return
		}
	}

	results := make([]reconcile.Result, 0, len(env.Data))
	for _, t := range env.Data {
		if t.IsTest() {
			results = append(results, reconcile.Result{Status: reconcile.StatusTestWebhook, TransactionID: string(t.ID)})
			continue
		}
		res, err := h.engine.Process(r.Context(), t.toReconcile())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to process transaction")
			return
		}
		results = append(results, res)
	}

	if len(results) == 1 {
		respondJSON(w, http.StatusOK, results[0])
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
