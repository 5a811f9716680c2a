package service

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/types"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

// LamportsToSOL converts a lamport balance to SOL
func LamportsToSOL(lamports uint64) float64 {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).InexactFloat64()
}

// NewTokenHolding derives the exact UI amount of a raw token account
func NewTokenHolding(acc types.TokenAccount) (types.TokenHolding, error) {
	raw, err := decimal.NewFromString(acc.Amount)
	if err != nil {
		return types.TokenHolding{}, fmt.Errorf("token %s: invalid amount %q: %w", acc.Mint, acc.Amount, err)
	}
	return types.TokenHolding{
		Mint:     acc.Mint,
		Amount:   acc.Amount,
		UIAmount: raw.Shift(-int32(acc.Decimals)),
		Decimals: acc.Decimals,
	}, nil
}

// SummarizeTokens converts token accounts to holdings sorted by UI amount,
// largest first, and keeps only the strictly positive ones. Count still
// reflects every account.
func SummarizeTokens(accounts []types.TokenAccount) (types.Tokens, error) {
	all := make([]types.TokenHolding, 0, len(accounts))
	for _, acc := range accounts {
		h, err := NewTokenHolding(acc)
		if err != nil {
			return types.Tokens{}, apperrors.NewRPCError("getTokenAccountsByOwner", err)
		}
		all = append(all, h)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UIAmount.GreaterThan(all[j].UIAmount)
	})

	nonZero := make([]types.TokenHolding, 0, len(all))
	for _, h := range all {
		if h.UIAmount.IsPositive() {
			nonZero = append(nonZero, h)
		}
	}

	return types.Tokens{
		Count:    len(all),
		NonZero:  len(nonZero),
		Holdings: nonZero,
	}, nil
}
