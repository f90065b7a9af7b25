// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"contractor-matching/internal/bootstrap"
	"contractor-matching/internal/common/camunda"
	"contractor-matching/internal/common/config"
	"contractor-matching/internal/common/database"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/common/observability"

	ac "contractor-matching/internal/workers/matching/assign-contractor"
	fcm "contractor-matching/internal/workers/matching/find-contractor-matches"
	ra "contractor-matching/internal/workers/matching/revoke-assignment"
)

const readinessTimeout = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.Build(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name, cfg.App.Version)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Insecure,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Stores, engine, assignment manager ---
	core, err := bootstrap.Build(ctx, cfg, bootstrap.Options{ConnectAttempts: 15, ConnectDelay: 2 * time.Second}, log)
	if err != nil {
		zapLog.Fatal("core init failed", zap.Error(err))
	}

	// --- Workers ---
	workers := []*camunda.CamundaWorker{
		camunda.StartWorker(zeebe.GetClient(), fcm.TaskType, config.GetWorkerConfig(cfg, fcm.TaskType),
			fcm.NewHandler(&fcm.Config{Timeout: handlerTimeout(cfg, fcm.TaskType, fcm.LoadConfig().Timeout)}, core.Engine, log).Handle,
			obs, log),
		camunda.StartWorker(zeebe.GetClient(), ac.TaskType, config.GetWorkerConfig(cfg, ac.TaskType),
			ac.NewHandler(&ac.Config{Timeout: handlerTimeout(cfg, ac.TaskType, ac.LoadConfig().Timeout)}, core.Manager, log).Handle,
			obs, log),
		camunda.StartWorker(zeebe.GetClient(), ra.TaskType, config.GetWorkerConfig(cfg, ra.TaskType),
			ra.NewHandler(&ra.Config{Timeout: handlerTimeout(cfg, ra.TaskType, ra.LoadConfig().Timeout)}, core.Manager, log).Handle,
			obs, log),
	}
	zapLog.Info("Workers registered")

	// --- Health & Metrics Server ---
	deps := append(core.Dependencies(), zeebe)
	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddress,
		Handler:           newMux(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := core.Close(shutdownCtx); err != nil {
		zapLog.Error("Error closing stores", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// handlerTimeout keeps the in-handler deadline below the job activation
// timeout so the job is settled before Zeebe hands it to another worker.
func handlerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	jobTimeout := config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	if jobTimeout <= 0 || fallback < jobTimeout {
		return fallback
	}
	return jobTimeout * 9 / 10
}

func newMux(deps []database.Pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		failures := database.CheckAll(r.Context(), readinessTimeout, deps...)
		if len(failures) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "not_ready",
				"failures": failures,
				"time":     time.Now().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
