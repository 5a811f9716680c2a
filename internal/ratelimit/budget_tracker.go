// Package ratelimit provides a Redis-backed request budget shared by every
// scout process talking to the same Solana RPC endpoint.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default budget configuration values.
const (
	DefaultBudget     = 600
	DefaultWindowSize = time.Minute
	DefaultKeyPrefix  = "scout:rpc:"
)

// consumeScript checks and charges the window counter atomically
var consumeScript = redis.NewScript(`
	local key = KEYS[1]
	local methodKey = KEYS[2]
	local units = tonumber(ARGV[1])
	local budget = tonumber(ARGV[2])
	local ttl = tonumber(ARGV[3])

	local used = tonumber(redis.call('GET', key) or '0')
	if used + units > budget then
		return {0, used}
	end

	redis.call('INCRBY', key, units)
	redis.call('EXPIRE', key, ttl)
	redis.call('INCRBY', methodKey, units)
	redis.call('EXPIRE', methodKey, ttl)
	return {1, used + units}
`)

// BudgetTracker enforces a fixed-window request budget in Redis
type BudgetTracker struct {
	redis      redis.Cmdable
	budget     int
	windowSize time.Duration
	keyTTL     time.Duration
	prefix     string
	now        func() time.Time
}

// BudgetTrackerConfig holds configuration for the budget tracker.
type BudgetTrackerConfig struct {
	// Redis is required.
	Redis redis.Cmdable

	// Budget is the number of request units allowed per window. Default: 600.
	Budget int

	// WindowSize is the window duration. Default: 1m.
	WindowSize time.Duration

	// KeyPrefix namespaces the Redis keys, typically per endpoint.
	KeyPrefix string

	Now func() time.Time
}

// Validate checks if the configuration is valid.
func (c *BudgetTrackerConfig) Validate() error {
	if c.Redis == nil {
		return errors.New("redis client is required")
	}
	if c.Budget < 0 {
		return errors.New("budget cannot be negative")
	}
	if c.WindowSize < 0 {
		return errors.New("window size cannot be negative")
	}
	return nil
}

// NewBudgetTracker creates a tracker with the given configuration.
func NewBudgetTracker(cfg *BudgetTrackerConfig) (*BudgetTracker, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	t := &BudgetTracker{
		redis:      cfg.Redis,
		budget:     cfg.Budget,
		windowSize: cfg.WindowSize,
		prefix:     cfg.KeyPrefix,
		now:        cfg.Now,
	}
	if t.budget == 0 {
		t.budget = DefaultBudget
	}
	if t.windowSize == 0 {
		t.windowSize = DefaultWindowSize
	}
	if t.prefix == "" {
		t.prefix = DefaultKeyPrefix
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.keyTTL = 2 * t.windowSize

	return t, nil
}

func (t *BudgetTracker) windowStart() time.Time {
	return t.now().Truncate(t.windowSize)
}

func (t *BudgetTracker) windowKey(start time.Time) string {
	return t.prefix + "budget:" + strconv.FormatInt(start.UnixMilli(), 10)
}

func (t *BudgetTracker) methodKey(start time.Time, method string) string {
	return t.prefix + "method:" + method + ":" + strconv.FormatInt(start.UnixMilli(), 10)
}

// TryConsume charges units against the current window.
//
// Returns whether the call may proceed and, when it may not, the time until
// the window resets. A Redis failure denies the call and is returned as err.
func (t *BudgetTracker) TryConsume(ctx context.Context, method string, units int) (bool, time.Duration, error) {
	if units <= 0 {
		return true, 0, nil
	}

	start := t.windowStart()
	ttlSeconds := int(t.keyTTL.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := consumeScript.Run(ctx, t.redis,
		[]string{t.windowKey(start), t.methodKey(start, method)},
		units, t.budget, ttlSeconds).Int64Slice()
	if err != nil {
		return false, t.untilReset(start), fmt.Errorf("consume budget: %w", err)
	}

	if result[0] != 1 {
		return false, t.untilReset(start), nil
	}
	return true, 0, nil
}

func (t *BudgetTracker) untilReset(start time.Time) time.Duration {
	wait := start.Add(t.windowSize).Sub(t.now())
	if wait < 0 {
		wait = 0
	}
	return wait + time.Millisecond
}

// Usage contains current consumption metrics.
type Usage struct {
	Used        int            `json:"used"`
	Budget      int            `json:"budget"`
	WindowStart time.Time      `json:"windowStart"`
	WindowSize  string         `json:"windowSize"`
	ByMethod    map[string]int `json:"byMethod"`
}

// Utilization returns used/budget as a percentage
func (u *Usage) Utilization() float64 {
	if u.Budget == 0 {
		return 100
	}
	return float64(u.Used) * 100 / float64(u.Budget)
}

// GetUsage returns the usage of the current window, broken down by method.
func (t *BudgetTracker) GetUsage(ctx context.Context, methods []string) (*Usage, error) {
	start := t.windowStart()

	pipe := t.redis.Pipeline()
	totalCmd := pipe.Get(ctx, t.windowKey(start))
	methodCmds := make(map[string]*redis.StringCmd, len(methods))
	for _, m := range methods {
		methodCmds[m] = pipe.Get(ctx, t.methodKey(start, m))
	}

	// Missing keys come back as redis.Nil and simply mean zero usage
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read budget usage: %w", err)
	}

	usage := &Usage{
		Used:        parseIntOrZero(totalCmd),
		Budget:      t.budget,
		WindowStart: start,
		WindowSize:  t.windowSize.String(),
		ByMethod:    make(map[string]int, len(methods)),
	}
	for m, cmd := range methodCmds {
		usage.ByMethod[m] = parseIntOrZero(cmd)
	}
	return usage, nil
}

func parseIntOrZero(cmd *redis.StringCmd) int {
	val, err := cmd.Int()
	if err != nil {
		return 0
	}
	return val
}

// Budget returns the configured units per window
func (t *BudgetTracker) Budget() int {
	return t.budget
}

// WindowSize returns the configured window size
func (t *BudgetTracker) WindowSize() time.Duration {
	return t.windowSize
}

// EndpointKeyPrefix derives a Redis key prefix from an RPC endpoint so that
// processes sharing an endpoint share a budget.
func EndpointKeyPrefix(endpoint string) string {
	host := endpoint
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?"); i >= 0 {
		host = host[:i]
	}
	return DefaultKeyPrefix + host + ":"
}
