// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/taboo/internal/cache"
	"github.com/jason-s-yu/taboo/internal/cards"
	"github.com/jason-s-yu/taboo/internal/config"
	"github.com/jason-s-yu/taboo/internal/database"
	"github.com/jason-s-yu/taboo/internal/game"
	"github.com/jason-s-yu/taboo/internal/handlers"
	"github.com/jason-s-yu/taboo/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deck := loadCatalog(ctx, cfg, logger)
	logger.WithField("cards", deck.Len()).Info("card catalog ready")

	hub := handlers.NewHub(logger)
	engine := game.NewEngine(game.NewRegistry(), deck, hub, logger)
	engine.TurnDuration = cfg.TurnDuration
	engine.TurnPause = cfg.TurnPause

	if cfg.RedisAddr != "" {
		q, err := cache.NewTurnQueue(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.TurnHistoryQueue)
		if err != nil {
			logger.Warnf("turn history disabled: %v", err)
		} else {
			defer q.Close()
			engine.Recorder = q
			logger.WithField("queue", q.Queue()).Info("publishing turn history to Redis")
		}
	}

	gw := handlers.NewGateway(engine, hub, logger)
	gw.MsgRate = cfg.MsgRate
	gw.MsgBurst = cfg.MsgBurst

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.PingHandler)
	mux.Handle("/ws", middleware.LogMiddleware(logger)(gw.WSHandler()))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", server.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"rooms":       engine.Rooms().Len(),
		"connections": hub.Len(),
	}).Info("server stopped")
}

// loadCatalog reads cards from Postgres when DATABASE_URL is set and falls
// back to the built-in deck on any failure.
func loadCatalog(ctx context.Context, cfg config.Config, logger *logrus.Logger) *cards.Catalog {
	if cfg.DatabaseURL == "" {
		return cards.Default()
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warnf("using built-in cards: %v", err)
		return cards.Default()
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Warnf("using built-in cards: %v", err)
		return cards.Default()
	}
	loaded, err := cards.LoadFromDB(ctx, pool)
	if err != nil {
		logger.Warnf("using built-in cards: %v", err)
		return cards.Default()
	}
	deck, err := cards.NewCatalog(loaded)
	if err != nil {
		logger.Warnf("using built-in cards: %v", err)
		return cards.Default()
	}
	return deck
}
