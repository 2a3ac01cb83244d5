// Package identity resolves provider access tokens into identity claims.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

const (
	DefaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	defaultRequestTimeout   = 10 * time.Second
	maxProfileResponseBytes = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type GoogleConfig struct {
	HTTPClient     HTTPDoer
	UserInfoURL    string
	RequestTimeout time.Duration
}

// GoogleResolver implements ports.IdentityResolver against Google's userinfo endpoint.
type GoogleResolver struct {
	httpClient     HTTPDoer
	userInfoURL    string
	requestTimeout time.Duration
}

func NewGoogleResolver(cfg GoogleConfig) *GoogleResolver {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	userInfoURL := strings.TrimSpace(cfg.UserInfoURL)
	if userInfoURL == "" {
		userInfoURL = DefaultGoogleUserInfoURL
	}
	return &GoogleResolver{
		httpClient:     httpClient,
		userInfoURL:    userInfoURL,
		requestTimeout: requestTimeout,
	}
}

// googleProfile covers both the v2 (id) and OpenID Connect (sub) userinfo shapes.
type googleProfile struct {
	Sub        string `json:"sub"`
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Resolve makes a single userinfo round trip. Every failure wraps
// domerrors.ErrAuthenticationFailed; the cause is kept for logging only.
func (r *GoogleResolver) Resolve(ctx context.Context, accessToken string) (domain.IdentityClaims, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return domain.IdentityClaims{}, authFailed("access token is required")
	}
	profile, err := r.fetchUserInfo(ctx, accessToken)
	if err != nil {
		return domain.IdentityClaims{}, err
	}

	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return domain.IdentityClaims{}, authFailed("profile has no email")
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(profile.GivenName) + " " + strings.TrimSpace(profile.FamilyName))
	}
	claims := domain.IdentityClaims{Email: email, Name: name}
	if pic := strings.TrimSpace(profile.Picture); pic != "" {
		claims.Picture = &pic
	}
	subject := strings.TrimSpace(profile.Sub)
	if subject == "" {
		subject = strings.TrimSpace(profile.ID)
	}
	if subject != "" {
		claims.ProviderSubjectID = &subject
	}
	return claims, nil
}

func (r *GoogleResolver) fetchUserInfo(ctx context.Context, accessToken string) (*googleProfile, error) {
	requestCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, r.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build userinfo request: %v", domerrors.ErrAuthenticationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	res, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %v", domerrors.ErrAuthenticationFailed, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxProfileResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read userinfo response: %v", domerrors.ErrAuthenticationFailed, err)
	}
	if len(body) > maxProfileResponseBytes {
		return nil, authFailed("userinfo response exceeds size limit")
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: userinfo endpoint returned status %d", domerrors.ErrAuthenticationFailed, res.StatusCode)
	}
	var profile googleProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", domerrors.ErrAuthenticationFailed, err)
	}
	return &profile, nil
}

func authFailed(reason string) error {
	return fmt.Errorf("%w: %s", domerrors.ErrAuthenticationFailed, reason)
}

var _ ports.IdentityResolver = (*GoogleResolver)(nil)
