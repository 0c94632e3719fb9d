package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tapi/api/internal/admin"
	"tapi/api/internal/casso"
	"tapi/api/internal/config"
	"tapi/api/internal/db"
	"tapi/api/internal/delivery"
	"tapi/api/internal/logger"
	"tapi/api/internal/metrics"
	"tapi/api/internal/middleware"
	"tapi/api/internal/notify"
	"tapi/api/internal/reconcile"
)

func main() {
	// Load .env file if it exists (ignores error if file is absent)
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Fatalf("create data directory: %v", err)
	}

	sqlite, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer sqlite.Close()

	if err := db.Migrate(sqlite); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	metrics.Register()

	if cfg.CassoWebhookSecret == "" {
		logger.Errorf("CASSO_WEBHOOK_SECRET not set; webhook requests will be rejected with 500")
	}

	emitter := notify.NewEmitter(sqlite)
	engine := reconcile.NewEngine(
		sqlite,
		reconcile.Tolerance{Min: cfg.AmountToleranceMin, Percent: cfg.AmountTolerancePercent},
		delivery.NewDispatcher(sqlite),
		emitter,
		cfg.MatchScanLimit,
	)
	webhookHandler := casso.NewHandler(engine, cfg)
	adminHandler := admin.NewHandler(sqlite)
	adminOnly := middleware.AdminAuth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/webhooks/casso", metrics.Instrument("casso_webhook", webhookHandler.HandleWebhook))
	mux.HandleFunc("/api/webhook/casso", metrics.Instrument("casso_webhook", webhookHandler.HandleWebhook))
	mux.Handle("GET /v1/admin/unmatched", adminOnly(metrics.Instrument("admin_unmatched", adminHandler.ListUnmatched)))
	mux.Handle("GET /v1/admin/transactions/{transactionID}", adminOnly(metrics.Instrument("admin_transaction", adminHandler.GetTransaction)))
	mux.HandleFunc("GET /health", adminHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.JWTSecret == "" {
		logger.Warnf("JWT_SECRET not set; admin endpoints disabled")
	}

	handler := middleware.CORS(cfg.CORSOrigins)(mux)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Infof("webhook server listening on %s", addr)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown server: %v", err)
	}
	emitter.Wait()
	logger.Infof("server stopped")
}
