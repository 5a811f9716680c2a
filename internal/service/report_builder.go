package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solana-scout/internal/adapter"
	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/types"
)

// ReportBuilder assembles a WalletReport from three concurrent RPC fetches
type ReportBuilder struct {
	source   adapter.WalletDataSource
	endpoint string
	now      func() time.Time
}

// ReportBuilderOption customizes a ReportBuilder
type ReportBuilderOption func(*ReportBuilder)

// WithClock overrides the time source used for timestamps and wallet age
func WithClock(now func() time.Time) ReportBuilderOption {
	return func(b *ReportBuilder) {
		b.now = now
	}
}

// NewReportBuilder creates a report builder. endpoint is only recorded in report metadata.
func NewReportBuilder(source adapter.WalletDataSource, endpoint string, opts ...ReportBuilderOption) *ReportBuilder {
	b := &ReportBuilder{
		source:   source,
		endpoint: endpoint,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Endpoint returns the RPC endpoint recorded in report metadata
func (b *ReportBuilder) Endpoint() string {
	return b.endpoint
}

// BuildReport validates the address, fetches balance, token accounts and
// signatures concurrently and derives the full report. The first failed
// fetch fails the whole report.
func (b *ReportBuilder) BuildReport(ctx context.Context, address string) (*types.WalletReport, error) {
	if _, err := adapter.ValidateWalletAddress(address); err != nil {
		return nil, err
	}

	var (
		lamports   uint64
		accounts   []types.TokenAccount
		signatures []types.SignatureRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := b.source.GetBalance(gctx, address)
		if err != nil {
			return asRPCError("getBalance", err)
		}
		lamports = v
		return nil
	})
	g.Go(func() error {
		v, err := b.source.GetTokenAccounts(gctx, address)
		if err != nil {
			return asRPCError("getTokenAccountsByOwner", err)
		}
		accounts = v
		return nil
	})
	g.Go(func() error {
		v, err := b.source.GetSignatures(gctx, address, adapter.SignatureFetchLimit)
		if err != nil {
			return asRPCError("getSignaturesForAddress", err)
		}
		signatures = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return b.assemble(address, lamports, accounts, signatures)
}

func (b *ReportBuilder) assemble(address string, lamports uint64, accounts []types.TokenAccount, signatures []types.SignatureRecord) (*types.WalletReport, error) {
	tokens, err := SummarizeTokens(accounts)
	if err != nil {
		return nil, err
	}
	if len(signatures) > adapter.SignatureFetchLimit {
		signatures = signatures[:adapter.SignatureFetchLimit]
	}

	now := b.now().UTC()
	report := &types.WalletReport{
		Version:   types.ReportVersion,
		Address:   address,
		Timestamp: now,
		Balance: types.Balance{
			Lamports: lamports,
			SOL:      LamportsToSOL(lamports),
		},
		Tokens:       tokens,
		Transactions: SummarizeTransactions(signatures),
		Programs:     SummarizePrograms(nil),
		Meta: types.Meta{
			RPC:   b.endpoint,
			Agent: types.Agent,
		},
	}

	metrics := MetricsFromReport(report)
	report.Risk = ScoreRisk(metrics, now)
	report.Classification = Classify(metrics)
	return report, nil
}

// asRPCError keeps categorized errors as they are and wraps anything else as an RPC failure
func asRPCError(method string, err error) error {
	var catErr *apperrors.CategorizedError
	if errors.As(err, &catErr) {
		return err
	}
	return apperrors.NewRPCError(method, err)
}
