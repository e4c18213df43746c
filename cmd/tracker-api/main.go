package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/api"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/config"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/contracts"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/logging"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/mq"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/storage"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/telemetry"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("tracker-api config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("tracker-api logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("tracker-api stopped", zap.Error(err))
	}
	logger.Info("tracker-api shut down")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := telemetry.NewCollector(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	writer := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicBlacklist)
	defer writer.Close()
	publisher := mq.NewTransitionPublisher(writer, 256, logger.Named("publisher"))

	opts := []tracker.Option{
		tracker.WithLogger(logger.Named("tracker")),
		tracker.WithObserver(collector),
		tracker.WithObserver(publisher),
	}

	if cfg.DatabaseURL != "" {
		pool, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := storage.RunMigrations(ctx, pool); err != nil {
			return err
		}

		repo := storage.NewRepository(pool)
		snap, err := repo.LoadSnapshot(ctx, cfg.Tracker.IncidentRetention)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		opts = append(opts, tracker.WithStore(repo), tracker.WithSnapshot(snap))
	} else {
		logger.Warn("DATABASE_URL empty, tracker state is memory only")
	}

	tr, err := tracker.New(cfg.Tracker, opts...)
	if err != nil {
		return err
	}
	publisher.ResyncFrom(tr.IsBlacklisted)

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicEvents, cfg.ConsumerGroupPrefix+"-tracker-api")
	defer reader.Close()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(tr, logger.Named("http"), promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("tracker-api listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return publisher.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("consuming supplier events", zap.String("topic", cfg.KafkaTopicEvents))
		return mq.Consume(gctx, reader, logger.Named("consumer"), func(ctx context.Context, ev contracts.SupplierEvent) error {
			return applyEvent(ctx, tr, ev)
		})
	})

	return g.Wait()
}

type eventSink interface {
	TrackOrder(ctx context.Context, in tracker.OrderOutcome) error
	ReportIncident(ctx context.Context, in tracker.IncidentInput) (string, error)
}

func applyEvent(ctx context.Context, sink eventSink, ev contracts.SupplierEvent) error {
	if err := ev.Check(); err != nil {
		return err
	}
	switch ev.Kind {
	case contracts.KindOrder:
		return sink.TrackOrder(ctx, *ev.Order)
	case contracts.KindIncident:
		_, err := sink.ReportIncident(ctx, *ev.Incident)
		return err
	}
	return nil
}
