package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-scout/internal/config"
	"github.com/solana-scout/internal/logging"
)

func baseConfig() *config.Config {
	return &config.Config{
		RPC: config.RPCConfig{
			Endpoint:   "http://127.0.0.1:1",
			Commitment: "confirmed",
			Timeout:    time.Second,
		},
		Budget: config.BudgetConfig{RequestsPerWindow: 50, Window: time.Minute},
		Breaker: config.BreakerConfig{
			MaxFailures:      3,
			FailureThreshold: 0.5,
			Timeout:          time.Second,
			HalfOpenCalls:    6,
		},
	}
}

func TestNewMinimal(t *testing.T) {
	scout, err := New(context.Background(), baseConfig(), logging.Nop())
	require.NoError(t, err)
	defer scout.Close()

	assert.NotNil(t, scout.Reports)
	assert.NotNil(t, scout.Comparisons)
	assert.Nil(t, scout.Breaker)
	assert.Nil(t, scout.Budget)
	assert.Equal(t, "http://127.0.0.1:1", scout.Reports.Endpoint())
}

func TestNewWithBreakerAndBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Redis.Addr = mr.Addr()
	cfg.Breaker.Enabled = true

	scout, err := New(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer scout.Close()

	require.NotNil(t, scout.Breaker)
	require.NotNil(t, scout.Budget)
	stats := scout.Breaker.GetStats()
	assert.Equal(t, "rpc:http://127.0.0.1:1", stats.Name)
	assert.Equal(t, 6, stats.HalfOpenMaxCalls)

	usage, err := scout.Budget.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, usage.Budget)
	assert.Equal(t, 0, usage.Used)
}

func TestNewInvalidAddressSkipsRPC(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Redis.Addr = mr.Addr()
	cfg.Breaker.Enabled = true

	scout, err := New(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer scout.Close()

	_, err = scout.Reports.BuildReport(context.Background(), "not-base58-0OIl")
	require.Error(t, err)

	usage, err := scout.Budget.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, usage.Used)
	assert.Equal(t, 0, scout.Breaker.GetStats().TotalCalls)
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Redis.Addr = mr.Addr()
	mr.Close()

	_, err := New(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)
}
