package ports

import (
	"context"

	"github.com/scalpr/scalp/internal/domain"
)

// IdentityResolver exchanges a provider access token for identity claims.
// Any failure is reported as domerrors.ErrAuthenticationFailed.
type IdentityResolver interface {
	Resolve(ctx context.Context, accessToken string) (domain.IdentityClaims, error)
}
