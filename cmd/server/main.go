package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transferflow/internal/cache"
	"transferflow/internal/config"
	"transferflow/internal/history"
	"transferflow/internal/infrastructure/logger"
	"transferflow/internal/infrastructure/mysql"
	"transferflow/internal/infrastructure/redisconn"
	"transferflow/internal/notify"
	"transferflow/internal/server"
	"transferflow/internal/stock"
	"transferflow/internal/stock/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisconn.NewClient(cfg.Redis)
		if err != nil {
			// The cache degrades to L1-only; the service keeps working.
			zapLogger.Warn("redis unavailable, lot cache runs in-memory only", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	items := store.NewItemStore()
	lotCache := cache.NewLotCache(redisClient, cfg.Cache.TTL, zapLogger)
	hub := notify.NewHub(zapLogger)

	stockModule := stock.NewModule(db, items, lotCache, hub, cfg, zapLogger)
	historyCtrl := history.NewModule(items, zapLogger)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := stockModule.Service.LoadFromPersistence(loadCtx); err != nil {
		cancelLoad()
		zapLogger.Fatal("initial item load failed", zap.Error(err))
	}
	cancelLoad()

	router := server.NewRouter(stockModule, historyCtrl, hub, zapLogger)
	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	// Let in-flight persistence forwards drain before closing the database.
	stockModule.Service.Wait()

	zapLogger.Info("server stopped gracefully")
}
