package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

type GoogleSignIn struct {
	resolver ports.IdentityResolver
	signIn
}

func NewGoogleSignIn(resolver ports.IdentityResolver, users ports.UserDirectory, issuer ports.CredentialIssuer, scheduler ports.ProvisionScheduler, ttl time.Duration, log zerolog.Logger) *GoogleSignIn {
	return &GoogleSignIn{resolver: resolver, signIn: newSignIn(users, issuer, scheduler, ttl, log)}
}

// Execute exchanges a Google access token for a credential. Resolver errors
// (domerrors.ErrAuthenticationFailed) are returned unchanged.
func (uc *GoogleSignIn) Execute(ctx context.Context, accessToken string) (*SignInResult, error) {
	claims, err := uc.resolver.Resolve(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	claims, err = normalizeProviderClaims(claims)
	if err != nil {
		return nil, err
	}
	return uc.complete(ctx, claims)
}

// normalizeProviderClaims fits provider profile data into the stored column limits.
// An email that cannot be stored identifies nobody and fails authentication.
func normalizeProviderClaims(c domain.IdentityClaims) (domain.IdentityClaims, error) {
	c.Email = strings.TrimSpace(c.Email)
	if len(c.Email) > maxEmailLength || !emailRegex.MatchString(c.Email) {
		return domain.IdentityClaims{}, fmt.Errorf("%w: provider email is not usable", domerrors.ErrAuthenticationFailed)
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = c.Email
		if at := strings.IndexByte(c.Email, '@'); at > 0 {
			c.Name = c.Email[:at]
		}
	}
	c.Name = truncateRunes(c.Name, maxNameLength)
	if c.Picture != nil && (*c.Picture == "" || len(*c.Picture) > maxPictureLength) {
		c.Picture = nil
	}
	return c, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
