package domain

import (
	"strconv"
	"strings"
	"time"
)

// UserID is the storage-assigned identity of a user.
type UserID int64

// ParseUserID parses the decimal form used in credential subjects.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(n), nil
}

// String returns the decimal form.
func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// User is the durable identity record. Email is the primary lookup key;
// GoogleID and WalletAddress are unique when present.
type User struct {
	ID            UserID
	Email         string
	Name          string
	Picture       *string
	GoogleID      *string
	WalletAddress *string
	CreatedAt     time.Time
}

// HasWallet reports whether a wallet address has been assigned.
func (u *User) HasWallet() bool {
	return u != nil && u.WalletAddress != nil && *u.WalletAddress != ""
}

// IdentityClaims are the normalized fields of an external identity assertion.
// They are never persisted as-is.
type IdentityClaims struct {
	Email             string
	Name              string
	Picture           *string
	ProviderSubjectID *string
}

// HasSubject reports whether the claims carry a provider subject id.
func (c IdentityClaims) HasSubject() bool {
	return c.ProviderSubjectID != nil && *c.ProviderSubjectID != ""
}

// CredentialClaims is what a verified bearer credential asserts.
type CredentialClaims struct {
	UserID    UserID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
