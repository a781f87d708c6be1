package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"taxidispatch/config"
	"taxidispatch/pkg/bot"
	"taxidispatch/pkg/logger"
	"taxidispatch/service"
	"taxidispatch/storage/postgres"
	redisstore "taxidispatch/storage/redis"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	// 3. Initialize Shared Storage (Postgres)
	pgStore, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("Failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pgStore.Close()

	// 4. Wizard session store (Redis, TTL-bound)
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
	})
	sessions := redisstore.NewSessionRepo(redisClient, cfg.SessionTTL, log)

	// 5. Telegram transport + notification fan-out
	tb, err := bot.NewTelebot(&cfg)
	if err != nil {
		log.Error("Failed to initialize telegram bot", logger.Error(err))
		os.Exit(1)
	}
	notifier := bot.NewNotifier(tb, &cfg, log)

	// 6. Dispatch coordinator
	svc := service.New(pgStore, notifier, cfg, log)

	dispatchBot := bot.New(tb, &cfg, svc, sessions, log)

	// 7. Read-only reporting API (+ /metrics)
	go func() {
		if err := bot.RunServer(pgStore, log, cfg.AppPort); err != nil {
			log.Error("reporting API stopped", logger.Error(err))
		}
	}()

	go dispatchBot.Start()

	log.Info("🚀 Dispatch coordinator is now running.")

	// 8. Graceful shutdown listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("Stopping bot and shutting down...")
}
