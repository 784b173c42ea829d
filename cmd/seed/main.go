package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/db"
	"warbler/internal/logger"
	"warbler/internal/repository"
	"warbler/internal/service"
)

func main() {
	dir := flag.String("dir", "generator", "directory containing users.csv, messages.csv and follows.csv")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if err := run(cfg, *dir, zapLogger); err != nil {
		zapLogger.Error("seed failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dir string, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	log.Info("connected to database", zap.String("url", cfg.Database.URL))

	if cfg.ResetDB {
		log.Warn("resetting schema")
		err = db.Reset(gormDB)
	} else {
		err = db.Migrate(gormDB)
	}
	if err != nil {
		return err
	}

	redis := cache.New(cfg.Redis, log)
	defer redis.Close()

	users := service.NewUserService(
		repository.NewUserRepository(gormDB),
		repository.NewFollowRepository(gormDB),
		redis,
		log,
	)

	stats, err := newSeeder(users, log).Run(ctx, dir)
	log.Info("seed finished",
		zap.Int("users", stats.Users),
		zap.Int("messages", stats.Messages),
		zap.Int("follows", stats.Follows),
		zap.Int("skipped", stats.Skipped),
	)
	return err
}
