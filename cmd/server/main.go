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
	"go.uber.org/zap"

	"github.com/agenthands/leafcheck/internal/config"
	"github.com/agenthands/leafcheck/internal/core"
	"github.com/agenthands/leafcheck/internal/llm"
	"github.com/agenthands/leafcheck/internal/logging"
	"github.com/agenthands/leafcheck/internal/metrics"
	"github.com/agenthands/leafcheck/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyEnv()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	newClient := func(ctx context.Context, c config.LLMConfig) (llm.Client, error) {
		client, err := llm.NewClient(ctx, c)
		if err != nil {
			return nil, err
		}
		return m.InstrumentClient(c.Label(), client), nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diagnoser, closeClients, err := core.Build(ctx, cfg, newClient,
		core.WithLogger(logger.Named("diagnoser")),
		core.WithObserver(m))
	if err != nil {
		logger.Fatal("failed to build diagnoser", zap.Error(err))
	}
	defer func() {
		if err := closeClients(); err != nil {
			logger.Warn("failed to close llm clients", zap.Error(err))
		}
	}()

	srv := server.NewServer(diagnoser, cfg.Server, logger.Named("http"), m, reg)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.SetupRouter(),
	}

	go func() {
		logger.Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("fast", cfg.Fast.Label()),
			zap.String("accurate", cfg.Accurate.Label()),
			zap.Int("text_producers", len(cfg.Text)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
