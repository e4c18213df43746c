package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/config"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/contracts"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/gate"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/logging"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/mq"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("blacklist-gate config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("blacklist-gate logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("blacklist-gate redis error", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	g := gate.New(rdb, cfg.RedisKeyPrefix)

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicBlacklist, cfg.ConsumerGroupPrefix+"-blacklist-gate")
	defer reader.Close()

	logger.Info("blacklist-gate consuming", zap.String("topic", cfg.KafkaTopicBlacklist))
	err = mq.Consume(ctx, reader, logger, func(ctx context.Context, t contracts.BlacklistTransition) error {
		if err := g.Apply(ctx, t); err != nil {
			return err
		}
		logger.Info("gate updated",
			zap.String("supplier_id", t.SupplierID),
			zap.String("action", string(t.Action)),
			zap.Bool("auto", t.Auto),
		)
		return nil
	})
	if err != nil {
		logger.Error("blacklist-gate consumer stopped", zap.Error(err))
	}
	logger.Info("blacklist-gate shutting down")
}
