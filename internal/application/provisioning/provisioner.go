// Package provisioning assigns wallets to newly created users.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Outcome labels what a single Provision call did.
type Outcome string

const (
	OutcomeAssigned           Outcome = "assigned"
	OutcomeAlreadyProvisioned Outcome = "already_provisioned"
	OutcomeUserMissing        Outcome = "user_missing"
	OutcomeFailed             Outcome = "failed"
)

// Provisioner runs detached from the request that triggered it. Failures are
// logged and swallowed; nothing retries them.
type Provisioner struct {
	users   ports.UserDirectory
	wallets ports.WalletProvider
	log     zerolog.Logger
}

func NewProvisioner(users ports.UserDirectory, wallets ports.WalletProvider, log zerolog.Logger) *Provisioner {
	return &Provisioner{users: users, wallets: wallets, log: log}
}

// Provision assigns a wallet to userID if it has none. Concurrent calls for the
// same user leave exactly one address: the conditional write picks the winner.
func (p *Provisioner) Provision(ctx context.Context, userID domain.UserID) Outcome {
	log := p.log.With().Str("user_id", userID.String()).Logger()

	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("wallet provisioning: load user failed")
		return OutcomeFailed
	}
	if user == nil {
		log.Warn().Msg("wallet provisioning: user not found")
		return OutcomeUserMissing
	}
	if user.HasWallet() {
		return OutcomeAlreadyProvisioned
	}

	address, err := p.createAddress(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("wallet provisioning failed")
		return OutcomeFailed
	}
	assigned, err := p.users.UpdateWalletAddress(ctx, userID, address)
	if err != nil {
		if errors.Is(err, domerrors.ErrWalletAddressTaken) {
			log.Error().Err(err).Str("wallet_address", address).Msg("wallet provisioning: address belongs to another user")
		} else {
			log.Error().Err(err).Msg("wallet provisioning: store address failed")
		}
		return OutcomeFailed
	}
	if !assigned {
		log.Debug().Msg("wallet provisioning: already assigned by a concurrent run")
		return OutcomeAlreadyProvisioned
	}
	log.Info().Str("wallet_address", address).Msg("wallet provisioned")
	return OutcomeAssigned
}

func (p *Provisioner) createAddress(ctx context.Context, userID domain.UserID) (string, error) {
	address, err := p.wallets.CreateAddress(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domerrors.ErrProvisioningFailed, err)
	}
	if !addressPattern.MatchString(address) {
		return "", fmt.Errorf("%w: malformed address %q", domerrors.ErrProvisioningFailed, address)
	}
	return address, nil
}
