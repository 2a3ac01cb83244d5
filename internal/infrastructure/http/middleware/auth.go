package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

// Authenticator resolves a bearer credential to a user (auth.CurrentUser).
type Authenticator interface {
	Execute(ctx context.Context, token string) (*domain.User, error)
}

// RequireCredential rejects requests without a valid bearer credential and puts
// the resolved user in the context (see UserFromContext).
func RequireCredential(authn Authenticator, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w, "unauthorized", "missing or invalid authorization")
				return
			}
			user, err := authn.Execute(r.Context(), token)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
			case errors.Is(err, domerrors.ErrExpiredToken):
				writeUnauthorized(w, "token_expired", "token expired")
			case errors.Is(err, domerrors.ErrInvalidToken), errors.Is(err, domerrors.ErrAuthenticationFailed):
				writeUnauthorized(w, "invalid_token", "could not validate credentials")
			default:
				log.Error().Err(err).Msg("credential check failed")
				writeErr(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, errCode, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeErr(w, http.StatusUnauthorized, errCode, message)
}

func writeErr(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}
