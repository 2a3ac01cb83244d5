package ports

import (
	"context"

	"github.com/scalpr/scalp/internal/domain"
)

// UserStore is the row-level persistence contract for users. Implementations
// rely on storage uniqueness constraints (email, google_id, wallet_address) and
// report a violated constraint as domerrors.ErrDuplicate.
// Lookups return (nil, nil) when no row matches.
type UserStore interface {
	// Insert creates a row from claims with no wallet address.
	Insert(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error)
	// UpdateProfileByEmail refreshes name, picture and (when present) google_id
	// on the row matching claims.Email. Returns nil when no row matched.
	UpdateProfileByEmail(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error)
	// UpdateProfileByGoogleID is UpdateProfileByEmail keyed by the provider subject.
	UpdateProfileByGoogleID(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByWalletAddress(ctx context.Context, address string) (*domain.User, error)
	// SetWalletAddressIfAbsent writes address only if the row has none yet and
	// reports whether this call performed the write.
	SetWalletAddressIfAbsent(ctx context.Context, id domain.UserID, address string) (bool, error)
	Ping(ctx context.Context) error
}

// UserDirectory resolves identity claims to a durable user.
type UserDirectory interface {
	// CreateOrUpdate returns the user for claims and whether it was created by this call.
	CreateOrUpdate(ctx context.Context, claims domain.IdentityClaims) (user *domain.User, isNew bool, err error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByWalletAddress(ctx context.Context, address string) (*domain.User, error)
	// UpdateWalletAddress assigns address once; false means a wallet was already set.
	UpdateWalletAddress(ctx context.Context, id domain.UserID, address string) (bool, error)
}
