// Package auth holds the sign-in and credential verification use cases.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
)

const (
	DefaultCredentialTTL = 24 * time.Hour
	TokenTypeBearer      = "bearer"

	maxNameLength    = 255
	maxEmailLength   = 255
	maxPictureLength = 1024
)

type SignInResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	User        *domain.User
	IsNew       bool
}

// signIn is the part both sign-in flows share once claims are known.
type signIn struct {
	users     ports.UserDirectory
	issuer    ports.CredentialIssuer
	scheduler ports.ProvisionScheduler
	ttl       time.Duration
	log       zerolog.Logger
}

func newSignIn(users ports.UserDirectory, issuer ports.CredentialIssuer, scheduler ports.ProvisionScheduler, ttl time.Duration, log zerolog.Logger) signIn {
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}
	return signIn{users: users, issuer: issuer, scheduler: scheduler, ttl: ttl, log: log}
}

// complete resolves claims to a user, schedules provisioning for a brand new
// user without a wallet, and issues the credential. Scheduling failures are
// logged; the sign-in still succeeds.
func (s signIn) complete(ctx context.Context, claims domain.IdentityClaims) (*SignInResult, error) {
	user, isNew, err := s.users.CreateOrUpdate(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if isNew && !user.HasWallet() {
		if err := s.scheduler.Schedule(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("schedule wallet provisioning failed")
		}
	}
	token, err := s.issuer.Issue(user.ID, user.Email, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	return &SignInResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(s.ttl / time.Second),
		User:        user,
		IsNew:       isNew,
	}, nil
}
