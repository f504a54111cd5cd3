package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/agenthands/modelhub/internal/config"
	"github.com/agenthands/modelhub/internal/logger"
	"github.com/agenthands/modelhub/internal/seed"
	"github.com/agenthands/modelhub/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.LoadWithEnv(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	res, err := seed.Run(ctx, st, cfg.Admin, log)
	if err != nil {
		log.Error("seed failed", "error", err)
		st.Close()
		os.Exit(1)
	}
	log.Info("seed complete", "admin_created", res.AdminCreated, "types_created", res.TypesCreated)
}
