package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

// CredentialIssuer implements ports.CredentialIssuer with an HMAC-signed JWT.
type CredentialIssuer struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

type credentialClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// IssuerOption configures a CredentialIssuer.
type IssuerOption func(*CredentialIssuer)

// WithClock overrides the time source used for iat/exp and for verification.
func WithClock(now func() time.Time) IssuerOption {
	return func(c *CredentialIssuer) { c.now = now }
}

// NewCredentialIssuer builds an issuer for one of HS256, HS384 or HS512.
func NewCredentialIssuer(secret, algorithm string, opts ...IssuerOption) (*CredentialIssuer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	var method jwt.SigningMethod
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	c := &CredentialIssuer{secret: []byte(secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a credential for the user valid for ttl. Each credential carries a
// random jti so two issued in the same second still differ.
func (c *CredentialIssuer) Issue(userID domain.UserID, email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("credential lifetime must be positive")
	}
	now := c.now()
	claims := credentialClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (c *CredentialIssuer) Verify(token string) (*domain.CredentialClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &credentialClaims{}, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	claims, ok := parsed.Claims.(*credentialClaims)
	if !ok || !parsed.Valid {
		return nil, domerrors.ErrInvalidToken
	}
	id, err := domain.ParseUserID(claims.Subject)
	if err != nil || claims.Email == "" || claims.IssuedAt == nil {
		return nil, domerrors.ErrInvalidToken
	}
	return &domain.CredentialClaims{
		UserID:    id,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domerrors.ErrExpiredToken
	}
	return fmt.Errorf("%w: %v", domerrors.ErrInvalidToken, err)
}

var _ ports.CredentialIssuer = (*CredentialIssuer)(nil)
