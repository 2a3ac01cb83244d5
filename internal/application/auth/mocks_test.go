package auth

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/scalpr/scalp/internal/domain"
)

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) CreateOrUpdate(ctx context.Context, claims domain.IdentityClaims) (*domain.User, bool, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Bool(1), args.Error(2)
}

func (m *MockUserDirectory) getUser(args mock.Arguments) (*domain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getUser(m.Called(ctx, email))
}

func (m *MockUserDirectory) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return m.getUser(m.Called(ctx, googleID))
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return m.getUser(m.Called(ctx, id))
}

func (m *MockUserDirectory) GetByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	return m.getUser(m.Called(ctx, address))
}

func (m *MockUserDirectory) UpdateWalletAddress(ctx context.Context, id domain.UserID, address string) (bool, error) {
	args := m.Called(ctx, id, address)
	return args.Bool(0), args.Error(1)
}

type MockCredentialIssuer struct {
	mock.Mock
}

func (m *MockCredentialIssuer) Issue(userID domain.UserID, email string, ttl time.Duration) (string, error) {
	args := m.Called(userID, email, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialIssuer) Verify(token string) (*domain.CredentialClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CredentialClaims), args.Error(1)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, userID domain.UserID) error {
	return m.Called(ctx, userID).Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, accessToken string) (domain.IdentityClaims, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(domain.IdentityClaims), args.Error(1)
}
