package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

// maxUpsertAttempts bounds how often a lost insert race is retried against the winner's row.
const maxUpsertAttempts = 3

// Directory implements ports.UserDirectory over a row store. Uniqueness is left
// to the store's constraints; there is no application-level locking.
type Directory struct {
	store ports.UserStore
}

// New builds a Directory.
func New(store ports.UserStore) *Directory {
	return &Directory{store: store}
}

// CreateOrUpdate resolves claims to a user: match by email, then by provider
// subject, else insert. An insert that loses a race to a concurrent caller falls
// back to the update path and reports isNew=false.
func (d *Directory) CreateOrUpdate(ctx context.Context, claims domain.IdentityClaims) (*domain.User, bool, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		user, err := d.updateExisting(ctx, claims)
		if err != nil {
			return nil, false, err
		}
		if user != nil {
			return user, false, nil
		}
		user, err = d.store.Insert(ctx, claims)
		if err == nil {
			return user, true, nil
		}
		if !errors.Is(err, domerrors.ErrDuplicate) {
			return nil, false, fmt.Errorf("insert user: %w", err)
		}
		// Lost the race: the winner's row is committed, go around and update it.
		lastErr = err
	}
	return nil, false, fmt.Errorf("create or update user after %d attempts: %w", maxUpsertAttempts, lastErr)
}

func (d *Directory) updateExisting(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	user, err := d.store.UpdateProfileByEmail(ctx, claims)
	if err != nil {
		return nil, updateErr(err)
	}
	if user != nil || !claims.HasSubject() {
		return user, nil
	}
	user, err = d.store.UpdateProfileByGoogleID(ctx, claims)
	if err != nil {
		return nil, updateErr(err)
	}
	return user, nil
}

// updateErr maps a uniqueness failure on the update path. The only unique
// column an update writes is google_id, so the subject belongs to another row.
func updateErr(err error) error {
	if errors.Is(err, domerrors.ErrDuplicate) {
		return fmt.Errorf("update user: %w", domerrors.ErrIdentityConflict)
	}
	return fmt.Errorf("update user: %w", err)
}

func (d *Directory) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.store.GetByEmail(ctx, email)
}

func (d *Directory) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return d.store.GetByGoogleID(ctx, googleID)
}

func (d *Directory) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return d.store.GetByID(ctx, id)
}

func (d *Directory) GetByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	return d.store.GetByWalletAddress(ctx, address)
}

// UpdateWalletAddress is a single conditional write; it never replaces an existing address.
func (d *Directory) UpdateWalletAddress(ctx context.Context, id domain.UserID, address string) (bool, error) {
	ok, err := d.store.SetWalletAddressIfAbsent(ctx, id, address)
	if err != nil {
		if errors.Is(err, domerrors.ErrDuplicate) {
			return false, domerrors.ErrWalletAddressTaken
		}
		return false, err
	}
	return ok, nil
}

var _ ports.UserDirectory = (*Directory)(nil)
