package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/logging"
	"github.com/solana-scout/internal/types"
)

// RPC method names, as reported in errors and logs
const (
	opGetBalance              = "getBalance"
	opGetTokenAccountsByOwner = "getTokenAccountsByOwner"
	opGetSignaturesForAddress = "getSignaturesForAddress"
)

// RPCSource implements WalletDataSource on a Solana JSON-RPC endpoint
type RPCSource struct {
	client     *rpc.Client
	endpoint   string
	commitment rpc.CommitmentType
	logger     *logging.Logger
}

// RPCSourceConfig configures an RPCSource
type RPCSourceConfig struct {
	Endpoint   string
	Commitment string // processed, confirmed or finalized; defaults to confirmed
	Logger     *logging.Logger
}

// NewRPCSource creates a data source for the given endpoint
func NewRPCSource(cfg RPCSourceConfig) *RPCSource {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &RPCSource{
		client:     rpc.New(cfg.Endpoint),
		endpoint:   cfg.Endpoint,
		commitment: parseCommitment(cfg.Commitment),
		logger:     logger.WithField("endpoint", cfg.Endpoint),
	}
}

func parseCommitment(c string) rpc.CommitmentType {
	switch strings.ToLower(c) {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// Endpoint returns the RPC URL this source talks to
func (s *RPCSource) Endpoint() string {
	return s.endpoint
}

// GetBalance returns the lamport balance of address
func (s *RPCSource) GetBalance(ctx context.Context, address string) (uint64, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, apperrors.NewInvalidAddressError(address)
	}

	start := time.Now()
	out, err := s.client.GetBalance(ctx, pk, s.commitment)
	s.trace(opGetBalance, address, start, err)
	if err != nil {
		return 0, s.wrap(opGetBalance, address, err)
	}
	if out == nil {
		return 0, s.wrap(opGetBalance, address, ErrEmptyResult)
	}
	return out.Value, nil
}

// GetTokenAccounts returns the SPL token accounts owned by owner, decoded from jsonParsed data
func (s *RPCSource) GetTokenAccounts(ctx context.Context, owner string) ([]types.TokenAccount, error) {
	pk, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, apperrors.NewInvalidAddressError(owner)
	}

	programID := solana.TokenProgramID
	start := time.Now()
	out, err := s.client.GetTokenAccountsByOwner(ctx, pk,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{
			Commitment: s.commitment,
			Encoding:   solana.EncodingJSONParsed,
		},
	)
	s.trace(opGetTokenAccountsByOwner, owner, start, err)
	if err != nil {
		return nil, s.wrap(opGetTokenAccountsByOwner, owner, err)
	}
	if out == nil {
		return nil, s.wrap(opGetTokenAccountsByOwner, owner, ErrEmptyResult)
	}

	accounts := make([]types.TokenAccount, 0, len(out.Value))
	for _, ta := range out.Value {
		if ta == nil || ta.Account.Data == nil {
			return nil, s.wrap(opGetTokenAccountsByOwner, owner, ErrMalformedAccount)
		}
		acc, err := DecodeParsedTokenAccount(ta.Account.Data.GetRawJSON())
		if err != nil {
			return nil, s.wrap(opGetTokenAccountsByOwner, owner, err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// GetSignatures returns up to limit recent signature records for address
func (s *RPCSource) GetSignatures(ctx context.Context, address string, limit int) ([]types.SignatureRecord, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, apperrors.NewInvalidAddressError(address)
	}
	if limit <= 0 || limit > 1000 {
		limit = SignatureFetchLimit
	}

	start := time.Now()
	out, err := s.client.GetSignaturesForAddressWithOpts(ctx, pk, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: s.commitment,
	})
	s.trace(opGetSignaturesForAddress, address, start, err)
	if err != nil {
		return nil, s.wrap(opGetSignaturesForAddress, address, err)
	}

	return toSignatureRecords(out), nil
}

func toSignatureRecords(sigs []*rpc.TransactionSignature) []types.SignatureRecord {
	records := make([]types.SignatureRecord, 0, len(sigs))
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		rec := types.SignatureRecord{
			Signature: sig.Signature.String(),
			Failed:    sig.Err != nil,
		}
		// blockTime 0 is treated as unknown
		if sig.BlockTime != nil && *sig.BlockTime != 0 {
			t := sig.BlockTime.Time().UTC()
			rec.BlockTime = &t
		}
		records = append(records, rec)
	}
	return records
}

// parsedTokenAccount is the jsonParsed layout of an spl-token account
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				Amount   string `json:"amount"`
				Decimals uint8  `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
		Type string `json:"type"`
	} `json:"parsed"`
	Program string `json:"program"`
}

// DecodeParsedTokenAccount extracts mint, raw amount and decimals from jsonParsed account data
func DecodeParsedTokenAccount(raw json.RawMessage) (types.TokenAccount, error) {
	if len(raw) == 0 {
		return types.TokenAccount{}, ErrMalformedAccount
	}

	var p parsedTokenAccount
	if err := json.Unmarshal(raw, &p); err != nil {
		return types.TokenAccount{}, fmt.Errorf("%w: %v", ErrMalformedAccount, err)
	}

	info := p.Parsed.Info
	if info.Mint == "" || info.TokenAmount.Amount == "" {
		return types.TokenAccount{}, ErrMalformedAccount
	}
	for _, r := range info.TokenAmount.Amount {
		if r < '0' || r > '9' {
			return types.TokenAccount{}, fmt.Errorf("%w: non-integer amount %q", ErrMalformedAccount, info.TokenAmount.Amount)
		}
	}

	return types.TokenAccount{
		Mint:     info.Mint,
		Amount:   info.TokenAmount.Amount,
		Decimals: info.TokenAmount.Decimals,
	}, nil
}

func (s *RPCSource) trace(op, address string, start time.Time, err error) {
	if !s.logger.Enabled(logging.LevelDebug) {
		return
	}
	l := s.logger.WithFields(map[string]interface{}{
		"method":     op,
		"address":    address,
		"durationMs": time.Since(start).Milliseconds(),
	})
	if err != nil {
		l.WithError(err).Debug("rpc call failed")
		return
	}
	l.Debug("rpc call completed")
}

func (s *RPCSource) wrap(op, address string, err error) error {
	return apperrors.NewRPCError(op, NewAdapterError(s.endpoint, op, err, map[string]interface{}{
		"address": address,
	}))
}
