// cmd/historian is a background service that pops finished turns from the
// Redis queue and archives them in PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/taboo/internal/cache"
	"github.com/jason-s-yu/taboo/internal/config"
	"github.com/jason-s-yu/taboo/internal/database"
	"github.com/jason-s-yu/taboo/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatalf("database: %v", err)
	}

	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	q, err := cache.NewTurnQueue(ctx, redisAddr, cfg.RedisDB, cfg.TurnHistoryQueue)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer q.Close()

	svc := historian.NewService(q, historian.NewPostgresStore(pool), logger.WithField("queue", q.Queue()))
	if cfg.HistorianBatchSize > 0 {
		svc.BatchSize = cfg.HistorianBatchSize
	}
	if cfg.HistorianFlush > 0 {
		svc.FlushDelay = cfg.HistorianFlush
	}

	svc.Run(ctx)
}
