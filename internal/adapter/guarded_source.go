package adapter

import (
	"context"
	"errors"

	"github.com/solana-scout/internal/circuitbreaker"
	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/types"
)

// GuardedSource fails fast while the endpoint's circuit breaker is open
type GuardedSource struct {
	next     WalletDataSource
	breaker  *circuitbreaker.CircuitBreaker
	endpoint string
}

// NewGuardedSource wraps next with breaker
func NewGuardedSource(next WalletDataSource, breaker *circuitbreaker.CircuitBreaker, endpoint string) *GuardedSource {
	return &GuardedSource{next: next, breaker: breaker, endpoint: endpoint}
}

// CountsAgainstEndpoint reports whether err says something about endpoint health.
// Caller mistakes, budget refusals and cancellations do not.
func CountsAgainstEndpoint(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return !apperrors.IsInvalidAddress(err) &&
		!apperrors.IsNotAWallet(err) &&
		!apperrors.IsBudgetExhausted(err)
}

func (g *GuardedSource) guard(ctx context.Context, fn func(context.Context) error) error {
	err := g.breaker.Execute(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return apperrors.NewRPCUnavailableError(g.endpoint, err)
	}
	return err
}

// GetBalance implements WalletDataSource
func (g *GuardedSource) GetBalance(ctx context.Context, address string) (uint64, error) {
	var lamports uint64
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		lamports, err = g.next.GetBalance(ctx, address)
		return err
	})
	return lamports, err
}

// GetTokenAccounts implements WalletDataSource
func (g *GuardedSource) GetTokenAccounts(ctx context.Context, owner string) ([]types.TokenAccount, error) {
	var accounts []types.TokenAccount
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		accounts, err = g.next.GetTokenAccounts(ctx, owner)
		return err
	})
	return accounts, err
}

// GetSignatures implements WalletDataSource
func (g *GuardedSource) GetSignatures(ctx context.Context, address string, limit int) ([]types.SignatureRecord, error) {
	var records []types.SignatureRecord
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		records, err = g.next.GetSignatures(ctx, address, limit)
		return err
	})
	return records, err
}
