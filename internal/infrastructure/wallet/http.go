// Package wallet obtains wallet addresses for users.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
)

// idempotencyNamespace scopes Idempotency-Key values derived from user ids.
var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("scalp:wallet:provision"))

const maxResponseBytes = 64 << 10

// HTTPProvider creates wallets through a remote provisioning endpoint via POST JSON.
type HTTPProvider struct {
	client    *http.Client
	url       string
	secretKey string
	clientID  string
}

// HTTPProviderOption configures HTTPProvider.
type HTTPProviderOption func(*HTTPProvider)

// WithClient sets the HTTP client (default: 10s timeout).
func WithClient(c *http.Client) HTTPProviderOption {
	return func(p *HTTPProvider) {
		p.client = c
	}
}

// WithSecretKey sends the key as a bearer token on every request.
func WithSecretKey(key string) HTTPProviderOption {
	return func(p *HTTPProvider) {
		p.secretKey = key
	}
}

// WithClientID sets the X-Client-Id header.
func WithClientID(id string) HTTPProviderOption {
	return func(p *HTTPProvider) {
		p.clientID = id
	}
}

// NewHTTPProvider returns a WalletProvider that POSTs to url.
func NewHTTPProvider(url string, opts ...HTTPProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type createRequest struct {
	UserID string `json:"user_id"`
}

type createResponse struct {
	Address string `json:"address"`
}

// CreateAddress implements ports.WalletProvider. The Idempotency-Key is derived
// from the user id, so a repeated call for the same user is safe to replay.
func (p *HTTPProvider) CreateAddress(ctx context.Context, userID domain.UserID) (string, error) {
	body, err := json.Marshal(createRequest{UserID: userID.String()})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", IdempotencyKey(userID))
	if p.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.secretKey)
	}
	if p.clientID != "" {
		req.Header.Set("X-Client-Id", p.clientID)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wallet endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{status: resp.StatusCode}
	}
	var out createResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode wallet response: %w", err)
	}
	return strings.TrimSpace(out.Address), nil
}

// IdempotencyKey is the stable request key for provisioning userID's wallet.
func IdempotencyKey(userID domain.UserID) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(userID.String())).String()
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("wallet endpoint returned status %d", e.status)
}

var _ ports.WalletProvider = (*HTTPProvider)(nil)
