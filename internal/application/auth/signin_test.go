package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

func strp(s string) *string { return &s }

func TestEmailSignIn_NewUserSchedulesProvisioning(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserDirectory)
	issuer := new(MockCredentialIssuer)
	sched := new(MockScheduler)

	user := &domain.User{ID: 5, Email: "a@x.com", Name: "Ann"}
	users.On("CreateOrUpdate", ctx, domain.IdentityClaims{Email: "a@x.com", Name: "Ann"}).Return(user, true, nil)
	sched.On("Schedule", ctx, domain.UserID(5)).Return(nil)
	issuer.On("Issue", domain.UserID(5), "a@x.com", time.Hour).Return("tok", nil)

	uc := NewEmailSignIn(users, issuer, sched, time.Hour, zerolog.Nop())
	res, err := uc.Execute(ctx, EmailSignInInput{Email: " a@x.com ", Name: " Ann "})
	require.NoError(t, err)

	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, "bearer", res.TokenType)
	assert.EqualValues(t, 3600, res.ExpiresIn)
	assert.True(t, res.IsNew)
	assert.Same(t, user, res.User)
	users.AssertExpectations(t)
	issuer.AssertExpectations(t)
	sched.AssertExpectations(t)
}

func TestEmailSignIn_ExistingUserIsNotProvisioned(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserDirectory)
	issuer := new(MockCredentialIssuer)
	sched := new(MockScheduler)

	users.On("CreateOrUpdate", ctx, mock.Anything).Return(&domain.User{ID: 5, Email: "a@x.com", Name: "Ann"}, false, nil)
	issuer.On("Issue", domain.UserID(5), "a@x.com", DefaultCredentialTTL).Return("tok", nil)

	res, err := NewEmailSignIn(users, issuer, sched, 0, zerolog.Nop()).
		Execute(ctx, EmailSignInInput{Email: "a@x.com", Name: "Ann"})
	require.NoError(t, err)
	assert.False(t, res.IsNew)
	assert.EqualValues(t, 86400, res.ExpiresIn)
	sched.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestEmailSignIn_NewUserWithWalletIsNotProvisioned(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserDirectory)
	issuer := new(MockCredentialIssuer)
	sched := new(MockScheduler)

	users.On("CreateOrUpdate", ctx, mock.Anything).Return(&domain.User{ID: 6, Email: "w@x.com", Name: "W", WalletAddress: strp("0xabc")}, true, nil)
	issuer.On("Issue", domain.UserID(6), "w@x.com", time.Hour).Return("tok", nil)

	_, err := NewEmailSignIn(users, issuer, sched, time.Hour, zerolog.Nop()).
		Execute(ctx, EmailSignInInput{Email: "w@x.com", Name: "W"})
	require.NoError(t, err)
	sched.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestEmailSignIn_ScheduleFailureDoesNotFailSignIn(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserDirectory)
	issuer := new(MockCredentialIssuer)
	sched := new(MockScheduler)

	users.On("CreateOrUpdate", ctx, mock.Anything).Return(&domain.User{ID: 7, Email: "s@x.com", Name: "S"}, true, nil)
	sched.On("Schedule", ctx, domain.UserID(7)).Return(errors.New("queue full"))
	issuer.On("Issue", domain.UserID(7), "s@x.com", time.Hour).Return("tok", nil)

	res, err := NewEmailSignIn(users, issuer, sched, time.Hour, zerolog.Nop()).
		Execute(ctx, EmailSignInInput{Email: "s@x.com", Name: "S"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
}

func TestEmailSignIn_Validation(t *testing.T) {
	long := strings.Repeat("n", 256)
	tests := []struct {
		name  string
		input EmailSignInInput
	}{
		{"blank name", EmailSignInInput{Email: "a@x.com", Name: "   "}},
		{"long name", EmailSignInInput{Email: "a@x.com", Name: long}},
		{"bad email", EmailSignInInput{Email: "not-an-email", Name: "A"}},
		{"empty email", EmailSignInInput{Email: "", Name: "A"}},
		{"long picture", EmailSignInInput{Email: "a@x.com", Name: "A", Picture: strp(strings.Repeat("p", 1025))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserDirectory)
			uc := NewEmailSignIn(users, new(MockCredentialIssuer), new(MockScheduler), time.Hour, zerolog.Nop())
			_, err := uc.Execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, domerrors.ErrValidation)
			users.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
		})
	}
}

func TestEmailSignIn_NameAt255IsAccepted(t *testing.T) {
	in := EmailSignInInput{Email: "a@x.com", Name: strings.Repeat("é", 255)}
	claims, err := in.claims()
	require.NoError(t, err)
	assert.Equal(t, in.Name, claims.Name)
}

func TestEmailSignIn_DirectoryErrorPropagates(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserDirectory)
	users.On("CreateOrUpdate", ctx, mock.Anything).Return(nil, false, domerrors.ErrIdentityConflict)

	_, err := NewEmailSignIn(users, new(MockCredentialIssuer), new(MockScheduler), time.Hour, zerolog.Nop()).
		Execute(ctx, EmailSignInInput{Email: "a@x.com", Name: "A"})
	assert.ErrorIs(t, err, domerrors.ErrIdentityConflict)
}

func TestGoogleSignIn_ResolvesAndNormalizes(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	users := new(MockUserDirectory)
	issuer := new(MockCredentialIssuer)
	sched := new(MockScheduler)

	resolver.On("Resolve", ctx, "google-tok").Return(domain.IdentityClaims{
		Email:             "jane@x.com",
		ProviderSubjectID: strp("g-1"),
		Picture:           strp(strings.Repeat("p", 2000)),
	}, nil)
	want := domain.IdentityClaims{Email: "jane@x.com", Name: "jane", ProviderSubjectID: strp("g-1")}
	user := &domain.User{ID: 9, Email: "jane@x.com", Name: "jane", GoogleID: strp("g-1")}
	users.On("CreateOrUpdate", ctx, want).Return(user, true, nil)
	sched.On("Schedule", ctx, domain.UserID(9)).Return(nil)
	issuer.On("Issue", domain.UserID(9), "jane@x.com", time.Hour).Return("tok", nil)

	res, err := NewGoogleSignIn(resolver, users, issuer, sched, time.Hour, zerolog.Nop()).Execute(ctx, "google-tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	users.AssertExpectations(t)
	sched.AssertExpectations(t)
}

func TestGoogleSignIn_ResolverFailure(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockResolver)
	users := new(MockUserDirectory)
	resolver.On("Resolve", ctx, "bad").Return(domain.IdentityClaims{}, domerrors.ErrAuthenticationFailed)

	_, err := NewGoogleSignIn(resolver, users, new(MockCredentialIssuer), new(MockScheduler), time.Hour, zerolog.Nop()).Execute(ctx, "bad")
	assert.ErrorIs(t, err, domerrors.ErrAuthenticationFailed)
	users.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
}

func TestNormalizeProviderClaims_TruncatesName(t *testing.T) {
	c, err := normalizeProviderClaims(domain.IdentityClaims{Email: " a@x.com ", Name: strings.Repeat("x", 300)})
	require.NoError(t, err)
	assert.Len(t, c.Name, 255)
	assert.Equal(t, "a@x.com", c.Email)
}

func TestGoogleSignIn_UnusableEmailFailsAuthentication(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"too long", strings.Repeat("a", 300) + "@x.com"},
		{"malformed", "not-an-email"},
		{"blank", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			resolver := new(MockResolver)
			users := new(MockUserDirectory)
			resolver.On("Resolve", ctx, "tok").Return(domain.IdentityClaims{Email: tt.email, Name: "L", ProviderSubjectID: strp("g-9")}, nil)

			_, err := NewGoogleSignIn(resolver, users, new(MockCredentialIssuer), new(MockScheduler), time.Hour, zerolog.Nop()).Execute(ctx, "tok")
			assert.ErrorIs(t, err, domerrors.ErrAuthenticationFailed)
			users.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
		})
	}
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 3, Email: "c@x.com", Name: "C"}

	tests := []struct {
		name    string
		setup   func(*MockCredentialIssuer, *MockUserDirectory)
		wantErr error
	}{
		{"valid", func(i *MockCredentialIssuer, u *MockUserDirectory) {
			i.On("Verify", "t").Return(&domain.CredentialClaims{UserID: 3, Email: "c@x.com"}, nil)
			u.On("GetByEmail", ctx, "c@x.com").Return(user, nil)
		}, nil},
		{"expired", func(i *MockCredentialIssuer, _ *MockUserDirectory) {
			i.On("Verify", "t").Return(nil, domerrors.ErrExpiredToken)
		}, domerrors.ErrExpiredToken},
		{"invalid", func(i *MockCredentialIssuer, _ *MockUserDirectory) {
			i.On("Verify", "t").Return(nil, domerrors.ErrInvalidToken)
		}, domerrors.ErrInvalidToken},
		{"user gone", func(i *MockCredentialIssuer, u *MockUserDirectory) {
			i.On("Verify", "t").Return(&domain.CredentialClaims{UserID: 3, Email: "c@x.com"}, nil)
			u.On("GetByEmail", ctx, "c@x.com").Return(nil, nil)
		}, domerrors.ErrAuthenticationFailed},
		{"id mismatch", func(i *MockCredentialIssuer, u *MockUserDirectory) {
			i.On("Verify", "t").Return(&domain.CredentialClaims{UserID: 4, Email: "c@x.com"}, nil)
			u.On("GetByEmail", ctx, "c@x.com").Return(user, nil)
		}, domerrors.ErrAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := new(MockCredentialIssuer)
			users := new(MockUserDirectory)
			tt.setup(issuer, users)

			got, err := NewCurrentUser(issuer, users).Execute(ctx, "t")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Same(t, user, got)
		})
	}
}
