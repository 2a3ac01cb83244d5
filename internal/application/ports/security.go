package ports

import (
	"time"

	"github.com/scalpr/scalp/internal/domain"
)

// CredentialIssuer signs and verifies stateless bearer credentials (HMAC JWT).
type CredentialIssuer interface {
	Issue(userID domain.UserID, email string, ttl time.Duration) (string, error)
	// Verify fails with domerrors.ErrInvalidToken or domerrors.ErrExpiredToken.
	Verify(token string) (*domain.CredentialClaims, error)
}
