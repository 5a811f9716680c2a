// Package main provides the HTTP API entry point for agents that need
// wallet reports and comparisons over JSON.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solana-scout/internal/api"
	"github.com/solana-scout/internal/app"
	"github.com/solana-scout/internal/config"
	"github.com/solana-scout/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	scout, err := app.New(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}
	defer func() {
		if err := scout.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Redis connection")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"rpc":        cfg.RPC.Endpoint,
		"commitment": cfg.RPC.Commitment,
		"breaker":    scout.Breaker != nil,
		"budget":     scout.Budget != nil,
	}).Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RPC.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		RequestTimeout:    cfg.RPC.Timeout,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}

	opts := []api.ServerOption{api.WithLogger(logger)}
	if scout.Breaker != nil {
		opts = append(opts, api.WithBreaker(scout.Breaker))
	}
	if scout.Budget != nil {
		opts = append(opts, api.WithBudget(scout.Budget))
	}
	server := api.NewServer(serverConfig, scout.Reports, scout.Comparisons, opts...)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
