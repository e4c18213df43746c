package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/config"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/contracts"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/httpx"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/logging"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/mq"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("outcome-ingest config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("outcome-ingest logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	writer := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicEvents)
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(writer, logger, func() time.Time { return time.Now().UTC() }),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("outcome-ingest listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("topic", cfg.KafkaTopicEvents),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("outcome-ingest server error", zap.Error(err))
	}
}

// newRouter accepts storefront webhooks, checks them and forwards them to the events
// topic keyed by supplier so one supplier's events stay ordered.
func newRouter(writer mq.MessageWriter, logger *zap.Logger, now func() time.Time) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "outcome-ingest"})
	})

	publish := func(w http.ResponseWriter, r *http.Request, ev contracts.SupplierEvent) {
		ev.ID = uuid.NewString()
		ev.ReceivedAt = now()
		if err := mq.PublishJSON(r.Context(), writer, ev.Key(), ev); err != nil {
			logger.Error("publish supplier event", zap.String("kind", string(ev.Kind)), zap.Error(err))
			httpx.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "publish failed"})
			return
		}
		httpx.WriteJSON(w, http.StatusAccepted, map[string]any{"id": ev.ID, "kind": ev.Kind})
	}

	router.Post("/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		var order tracker.OrderOutcome
		if err := httpx.DecodeJSON(r, &order); err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		order.SupplierID = strings.TrimSpace(order.SupplierID)
		order.OrderID = strings.TrimSpace(order.OrderID)
		if err := order.Validate(); err != nil {
			httpx.WriteError(w, err)
			return
		}
		publish(w, r, contracts.SupplierEvent{Kind: contracts.KindOrder, Order: &order})
	})

	router.Post("/v1/incidents", func(w http.ResponseWriter, r *http.Request) {
		var incident tracker.IncidentInput
		if err := httpx.DecodeJSON(r, &incident); err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		incident.SupplierID = strings.TrimSpace(incident.SupplierID)
		incident.OrderID = strings.TrimSpace(incident.OrderID)
		if err := incident.Validate(); err != nil {
			httpx.WriteError(w, err)
			return
		}
		publish(w, r, contracts.SupplierEvent{Kind: contracts.KindIncident, Incident: &incident})
	})

	return router
}
