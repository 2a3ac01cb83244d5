package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrValidation           = errors.New("invalid identity claims")
	ErrInvalidToken         = errors.New("invalid token")
	ErrExpiredToken         = errors.New("token has expired")
	ErrProvisioningFailed   = errors.New("wallet provisioning failed")
	ErrUserNotFound         = errors.New("user not found")
	ErrIdentityConflict     = errors.New("provider identity already linked to another user")
	ErrWalletAddressTaken   = errors.New("wallet address already assigned to another user")
	// ErrDuplicate is returned by row stores when a write hits a uniqueness constraint.
	ErrDuplicate = errors.New("unique constraint violation")
)
