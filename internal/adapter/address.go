package adapter

import (
	"github.com/gagliardetto/solana-go"

	apperrors "github.com/solana-scout/internal/errors"
)

// ValidateWalletAddress parses a base58 public key and rejects keys that are
// off the ed25519 curve, i.e. program and program-derived addresses.
func ValidateWalletAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, apperrors.NewInvalidAddressError(address)
	}
	if !solana.IsOnCurve(pk.Bytes()) {
		return solana.PublicKey{}, apperrors.NewNotAWalletError(address)
	}
	return pk, nil
}
