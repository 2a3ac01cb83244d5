package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EmailSignInInput is asserted by a trusted mobile client; there is no provider check.
type EmailSignInInput struct {
	Email   string
	Name    string
	Picture *string
}

type EmailSignIn struct {
	signIn
}

func NewEmailSignIn(users ports.UserDirectory, issuer ports.CredentialIssuer, scheduler ports.ProvisionScheduler, ttl time.Duration, log zerolog.Logger) *EmailSignIn {
	return &EmailSignIn{signIn: newSignIn(users, issuer, scheduler, ttl, log)}
}

func (uc *EmailSignIn) Execute(ctx context.Context, input EmailSignInInput) (*SignInResult, error) {
	claims, err := input.claims()
	if err != nil {
		return nil, err
	}
	return uc.complete(ctx, claims)
}

func (in EmailSignInInput) claims() (domain.IdentityClaims, error) {
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return domain.IdentityClaims{}, fmt.Errorf("%w: name must not be empty", domerrors.ErrValidation)
	case utf8.RuneCountInString(name) > maxNameLength:
		return domain.IdentityClaims{}, fmt.Errorf("%w: name must be at most %d characters", domerrors.ErrValidation, maxNameLength)
	case len(email) > maxEmailLength || !emailRegex.MatchString(email):
		return domain.IdentityClaims{}, fmt.Errorf("%w: email is not valid", domerrors.ErrValidation)
	}
	claims := domain.IdentityClaims{Email: email, Name: name}
	if in.Picture != nil {
		pic := strings.TrimSpace(*in.Picture)
		if len(pic) > maxPictureLength {
			return domain.IdentityClaims{}, fmt.Errorf("%w: picture must be at most %d characters", domerrors.ErrValidation, maxPictureLength)
		}
		if pic != "" {
			claims.Picture = &pic
		}
	}
	return claims, nil
}
