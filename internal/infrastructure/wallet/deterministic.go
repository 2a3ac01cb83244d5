package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
)

// DeterministicProvider derives an address from the user id with no network call.
// Used when no wallet endpoint is configured.
type DeterministicProvider struct{}

func NewDeterministicProvider() *DeterministicProvider {
	return &DeterministicProvider{}
}

func (DeterministicProvider) CreateAddress(_ context.Context, userID domain.UserID) (string, error) {
	sum := sha256.Sum256([]byte("wallet_" + userID.String()))
	return "0x" + hex.EncodeToString(sum[:])[:40], nil
}

var _ ports.WalletProvider = (*DeterministicProvider)(nil)
