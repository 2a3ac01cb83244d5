package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strp(s string) *string { return &s }

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		_ = s.Close()
	}
}

func TestInsertAndLookups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := s.Insert(ctx, domain.IdentityClaims{
		Email:             "a@x.com",
		Name:              "A",
		Picture:           strp("https://example.com/a.png"),
		ProviderSubjectID: strp("g-1"),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if u.ID == 0 || u.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be assigned, got %+v", u)
	}
	if u.WalletAddress != nil {
		t.Fatalf("new user should have no wallet, got %q", *u.WalletAddress)
	}

	byEmail, err := s.GetByEmail(ctx, "a@x.com")
	if err != nil || byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail = %+v, %v", byEmail, err)
	}
	byGoogle, err := s.GetByGoogleID(ctx, "g-1")
	if err != nil || byGoogle == nil || byGoogle.ID != u.ID {
		t.Fatalf("GetByGoogleID = %+v, %v", byGoogle, err)
	}
	byID, err := s.GetByID(ctx, u.ID)
	if err != nil || byID == nil || byID.Email != "a@x.com" {
		t.Fatalf("GetByID = %+v, %v", byID, err)
	}
	if *byID.Picture != "https://example.com/a.png" {
		t.Errorf("picture = %q", *byID.Picture)
	}

	missing, err := s.GetByEmail(ctx, "A@x.com")
	if err != nil || missing != nil {
		t.Fatalf("email lookup should be case-sensitive, got %+v, %v", missing, err)
	}
}

func TestInsertDuplicateEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Insert(ctx, domain.IdentityClaims{Email: "dup@x.com", Name: "One"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := s.Insert(ctx, domain.IdentityClaims{Email: "dup@x.com", Name: "Two"})
	if !errors.Is(err, domerrors.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestInsertWithoutSubjectAllowsManyNullGoogleIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	blank := ""
	for _, email := range []string{"n1@x.com", "n2@x.com"} {
		if _, err := s.Insert(ctx, domain.IdentityClaims{Email: email, Name: "N", ProviderSubjectID: &blank}); err != nil {
			t.Fatalf("insert %s: %v", email, err)
		}
	}
}

func TestUpdateProfileByEmailKeepsGoogleIDWhenAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Insert(ctx, domain.IdentityClaims{Email: "u@x.com", Name: "Old", ProviderSubjectID: strp("g-9")}); err != nil {
		t.Fatal(err)
	}
	u, err := s.UpdateProfileByEmail(ctx, domain.IdentityClaims{Email: "u@x.com", Name: "New"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u == nil || u.Name != "New" {
		t.Fatalf("expected updated name, got %+v", u)
	}
	if u.GoogleID == nil || *u.GoogleID != "g-9" {
		t.Fatalf("google_id should be kept, got %v", u.GoogleID)
	}

	none, err := s.UpdateProfileByEmail(ctx, domain.IdentityClaims{Email: "nobody@x.com", Name: "X"})
	if err != nil || none != nil {
		t.Fatalf("update of missing row = %+v, %v", none, err)
	}
}

func TestSetWalletAddressIfAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a, _ := s.Insert(ctx, domain.IdentityClaims{Email: "w1@x.com", Name: "W1"})
	b, _ := s.Insert(ctx, domain.IdentityClaims{Email: "w2@x.com", Name: "W2"})
	addr := "0x1111111111111111111111111111111111111111"

	ok, err := s.SetWalletAddressIfAbsent(ctx, a.ID, addr)
	if err != nil || !ok {
		t.Fatalf("first assignment = %v, %v", ok, err)
	}
	ok, err = s.SetWalletAddressIfAbsent(ctx, a.ID, "0x2222222222222222222222222222222222222222")
	if err != nil || ok {
		t.Fatalf("second assignment should be a no-op, got %v, %v", ok, err)
	}
	_, err = s.SetWalletAddressIfAbsent(ctx, b.ID, addr)
	if !errors.Is(err, domerrors.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a reused address, got %v", err)
	}

	owner, err := s.GetByWalletAddress(ctx, addr)
	if err != nil || owner == nil || owner.ID != a.ID {
		t.Fatalf("GetByWalletAddress = %+v, %v", owner, err)
	}
}
