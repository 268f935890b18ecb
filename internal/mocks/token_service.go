package mocks

import (
	"context"

	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/service/auth"
	"github.com/stretchr/testify/mock"
)

// MockTokenService is a testify/mock implementation of auth.TokenService.
type MockTokenService struct {
	mock.Mock
}

var _ auth.TokenService = (*MockTokenService)(nil)

// IssueTokens is a mock implementation of auth.TokenService.IssueTokens
func (m *MockTokenService) IssueTokens(
	ctx context.Context,
	identity domain.UserIdentity,
) (*auth.AuthTokens, error) {
	args := m.Called(ctx, identity)
	if tokens, ok := args.Get(0).(*auth.AuthTokens); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

// VerifyAccessToken is a mock implementation of auth.TokenService.VerifyAccessToken
func (m *MockTokenService) VerifyAccessToken(ctx context.Context, token string) (*auth.TokenPayload, error) {
	args := m.Called(ctx, token)
	if payload, ok := args.Get(0).(*auth.TokenPayload); ok {
		return payload, args.Error(1)
	}
	return nil, args.Error(1)
}

// VerifyRefreshToken is a mock implementation of auth.TokenService.VerifyRefreshToken
func (m *MockTokenService) VerifyRefreshToken(ctx context.Context, token string) (*auth.TokenPayload, error) {
	args := m.Called(ctx, token)
	if payload, ok := args.Get(0).(*auth.TokenPayload); ok {
		return payload, args.Error(1)
	}
	return nil, args.Error(1)
}
