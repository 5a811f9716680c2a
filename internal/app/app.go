// Package app wires the RPC data source chain and the report services
// shared by the CLI and the API server.
package app

import (
	"context"
	"fmt"

	"github.com/solana-scout/internal/adapter"
	"github.com/solana-scout/internal/circuitbreaker"
	"github.com/solana-scout/internal/config"
	"github.com/solana-scout/internal/logging"
	"github.com/solana-scout/internal/ratelimit"
	"github.com/solana-scout/internal/service"
	"github.com/solana-scout/internal/storage"
)

// Scout holds the wired services
type Scout struct {
	Reports     *service.ReportBuilder
	Comparisons *service.Comparator

	// Breaker and Budget are nil when disabled
	Breaker *circuitbreaker.CircuitBreaker
	Budget  *ratelimit.RateLimitedSource

	redis *storage.RedisStore
}

// New builds Guarded(RateLimited(RPC)) over cfg.RPC.Endpoint.
// The budget layer is added only when Redis is configured.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Scout, error) {
	endpoint := cfg.RPC.Endpoint
	scout := &Scout{}

	var source adapter.WalletDataSource = adapter.NewRPCSource(adapter.RPCSourceConfig{
		Endpoint:   endpoint,
		Commitment: cfg.RPC.Commitment,
		Logger:     logger,
	})

	if cfg.Redis.Enabled() {
		store, err := storage.NewRedisStore(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		tracker, err := ratelimit.NewBudgetTracker(&ratelimit.BudgetTrackerConfig{
			Redis:      store.Client(),
			Budget:     cfg.Budget.RequestsPerWindow,
			WindowSize: cfg.Budget.Window,
			KeyPrefix:  ratelimit.EndpointKeyPrefix(endpoint),
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create budget tracker: %w", err)
		}
		budgeted, err := ratelimit.NewRateLimitedSource(&ratelimit.RateLimitedSourceConfig{
			Source:  source,
			Tracker: tracker,
			Logger:  logger,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create budgeted source: %w", err)
		}
		scout.redis = store
		scout.Budget = budgeted
		source = budgeted

		logger.WithFields(map[string]interface{}{
			"redis":  cfg.Redis.Addr,
			"budget": tracker.Budget(),
			"window": tracker.WindowSize().String(),
		}).Info("Shared RPC budget enabled")
	}

	if cfg.Breaker.Enabled {
		breakerCfg := circuitbreaker.DefaultConfig("rpc:" + endpoint)
		breakerCfg.MaxFailures = cfg.Breaker.MaxFailures
		breakerCfg.FailureThreshold = cfg.Breaker.FailureThreshold
		breakerCfg.Timeout = cfg.Breaker.Timeout
		if cfg.Breaker.HalfOpenCalls > 0 {
			breakerCfg.HalfOpenMaxCalls = cfg.Breaker.HalfOpenCalls
		}
		breakerCfg.IsFailure = adapter.CountsAgainstEndpoint
		breakerCfg.Logger = logger

		scout.Breaker = circuitbreaker.NewCircuitBreaker(breakerCfg)
		source = adapter.NewGuardedSource(source, scout.Breaker, endpoint)
	}

	scout.Reports = service.NewReportBuilder(source, endpoint)
	scout.Comparisons = service.NewComparator(scout.Reports, endpoint)
	return scout, nil
}

// Close releases the Redis connection, if any
func (s *Scout) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
