package ports

import (
	"context"

	"github.com/scalpr/scalp/internal/domain"
)

// ProvisionScheduler dispatches wallet provisioning off the request path.
// Schedule must not wait for provisioning to run.
type ProvisionScheduler interface {
	Schedule(ctx context.Context, userID domain.UserID) error
}

// WalletProvider obtains a wallet address for a user from the provisioning endpoint.
// Implementations should return the same address for repeated calls with the same id.
type WalletProvider interface {
	CreateAddress(ctx context.Context, userID domain.UserID) (string, error)
}
