// Package adapter talks to the Solana JSON-RPC API and turns provider
// responses into the records the report builder works on.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/solana-scout/internal/types"
)

// SignatureFetchLimit bounds how much history is examined per wallet
const SignatureFetchLimit = 100

// WalletDataSource is the read side of the RPC endpoint needed to profile a wallet.
// Every failure is returned as an RPC error from internal/errors.
type WalletDataSource interface {
	// GetBalance returns the lamport balance of address
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetTokenAccounts returns the SPL token accounts owned by owner
	GetTokenAccounts(ctx context.Context, owner string) ([]types.TokenAccount, error)

	// GetSignatures returns up to limit of the most recent signatures touching address, newest first
	GetSignatures(ctx context.Context, address string, limit int) ([]types.SignatureRecord, error)
}

var (
	// ErrMalformedAccount indicates a token account without the expected parsed layout
	ErrMalformedAccount = errors.New("malformed token account")

	// ErrEmptyResult indicates the provider returned no result object
	ErrEmptyResult = errors.New("empty rpc result")
)

// AdapterError wraps errors with the endpoint and operation that failed
type AdapterError struct {
	Endpoint string
	Op       string
	Err      error
	Details  map[string]interface{}
}

func (e *AdapterError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("solana rpc error [%s %s]: %v (details: %+v)", e.Endpoint, e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("solana rpc error [%s %s]: %v", e.Endpoint, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates a new AdapterError
func NewAdapterError(endpoint, op string, err error, details map[string]interface{}) *AdapterError {
	return &AdapterError{
		Endpoint: endpoint,
		Op:       op,
		Err:      err,
		Details:  details,
	}
}
