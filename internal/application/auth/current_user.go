package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

// CurrentUser resolves a bearer credential to the user it was issued for.
type CurrentUser struct {
	issuer ports.CredentialIssuer
	users  ports.UserDirectory
}

func NewCurrentUser(issuer ports.CredentialIssuer, users ports.UserDirectory) *CurrentUser {
	return &CurrentUser{issuer: issuer, users: users}
}

// Execute returns ErrInvalidToken or ErrExpiredToken for a bad credential and
// ErrAuthenticationFailed when the user it names no longer matches a row.
func (uc *CurrentUser) Execute(ctx context.Context, token string) (*domain.User, error) {
	claims, err := uc.issuer.Verify(token)
	if err != nil {
		if errors.Is(err, domerrors.ErrExpiredToken) || errors.Is(err, domerrors.ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domerrors.ErrInvalidToken, err)
	}
	user, err := uc.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.ID != claims.UserID {
		return nil, domerrors.ErrAuthenticationFailed
	}
	return user, nil
}
