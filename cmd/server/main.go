package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/agenthands/modelhub/internal/auth"
	"github.com/agenthands/modelhub/internal/config"
	"github.com/agenthands/modelhub/internal/core/extraction"
	"github.com/agenthands/modelhub/internal/core/templates"
	"github.com/agenthands/modelhub/internal/llm"
	"github.com/agenthands/modelhub/internal/logger"
	"github.com/agenthands/modelhub/internal/notify"
	"github.com/agenthands/modelhub/internal/server"
	"github.com/agenthands/modelhub/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment")
	}

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
	log.Info("configuration loaded", "path", cfgPath, "environment", cfg.Server.Environment)

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	extractLLM, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}

	genCfg := cfg.LLM
	genCfg.Model = cfg.TemplateGenerator.Model
	genCfg.Temperature = cfg.TemplateGenerator.Temperature
	genLLM, err := llm.NewClient(ctx, genCfg)
	if err != nil {
		log.Error("failed to create template llm client", "error", err)
		os.Exit(1)
	}
	gen, err := templates.NewGenerator(genLLM)
	if err != nil {
		log.Error("failed to create template generator", "error", err)
		os.Exit(1)
	}

	ex := extraction.NewExtractor(st, extractLLM, st, cfg.Extraction)
	ex.Logger = log
	if tg := notify.NewTelegram(cfg.Telegram, log); tg.Enabled() {
		ex.Alerts = tg
	} else {
		log.Info("telegram alerts disabled")
	}

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.NewServer(st, auth.NewIssuer(cfg.Auth), ex, gen, log)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.SetupRouter(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port, "llm_provider", cfg.LLM.Provider, "llm_model", cfg.LLM.Model)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}
	log.Info("server exited gracefully")
}
