package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/solana-scout/internal/adapter"
	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/logging"
	"github.com/solana-scout/internal/types"
)

// RateLimitedSource charges every RPC call against the shared budget before
// passing it on. A call over budget fails immediately; it never waits.
type RateLimitedSource struct {
	underlying   adapter.WalletDataSource
	tracker      *BudgetTracker
	costRegistry *CostRegistry
	logger       *logging.Logger
}

// RateLimitedSourceConfig holds configuration for the rate-limited source.
type RateLimitedSourceConfig struct {
	Source       adapter.WalletDataSource
	Tracker      *BudgetTracker
	CostRegistry *CostRegistry // defaults to the built-in costs
	Logger       *logging.Logger
}

// Validate checks if the configuration is valid.
func (c *RateLimitedSourceConfig) Validate() error {
	if c.Source == nil {
		return errors.New("underlying source is required")
	}
	if c.Tracker == nil {
		return errors.New("budget tracker is required")
	}
	return nil
}

// NewRateLimitedSource creates a budgeted data source.
func NewRateLimitedSource(cfg *RateLimitedSourceConfig) (*RateLimitedSource, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry := cfg.CostRegistry
	if registry == nil {
		registry = NewCostRegistry(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &RateLimitedSource{
		underlying:   cfg.Source,
		tracker:      cfg.Tracker,
		costRegistry: registry,
		logger:       logger.WithField("component", "rpc-budget"),
	}, nil
}

func (s *RateLimitedSource) acquire(ctx context.Context, method string) error {
	units := s.costRegistry.GetCost(method)
	allowed, wait, err := s.tracker.TryConsume(ctx, method, units)
	if allowed {
		return nil
	}

	l := s.logger.WithFields(map[string]interface{}{
		"method":       method,
		"units":        units,
		"retryAfterMs": wait.Milliseconds(),
	})
	if err != nil {
		l.WithError(err).Warn("rpc budget unavailable, denying call")
	} else {
		l.Warn("rpc budget exhausted")
	}
	return apperrors.NewRPCBudgetExhaustedError(method, wait.Milliseconds())
}

// GetBalance implements adapter.WalletDataSource
func (s *RateLimitedSource) GetBalance(ctx context.Context, address string) (uint64, error) {
	if err := s.acquire(ctx, MethodGetBalance); err != nil {
		return 0, err
	}
	return s.underlying.GetBalance(ctx, address)
}

// GetTokenAccounts implements adapter.WalletDataSource
func (s *RateLimitedSource) GetTokenAccounts(ctx context.Context, owner string) ([]types.TokenAccount, error) {
	if err := s.acquire(ctx, MethodGetTokenAccountsByOwner); err != nil {
		return nil, err
	}
	return s.underlying.GetTokenAccounts(ctx, owner)
}

// GetSignatures implements adapter.WalletDataSource
func (s *RateLimitedSource) GetSignatures(ctx context.Context, address string, limit int) ([]types.SignatureRecord, error) {
	if err := s.acquire(ctx, MethodGetSignaturesForAddress); err != nil {
		return nil, err
	}
	return s.underlying.GetSignatures(ctx, address, limit)
}

// Usage returns the current window usage for the methods this source charges
func (s *RateLimitedSource) Usage(ctx context.Context) (*Usage, error) {
	return s.tracker.GetUsage(ctx, s.costRegistry.KnownMethods())
}

var _ adapter.WalletDataSource = (*RateLimitedSource)(nil)
