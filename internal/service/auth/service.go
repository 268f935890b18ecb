package auth

import (
	"context"

	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/platform/logger"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User   domain.UserIdentity `json:"user"`
	Tokens *AuthTokens         `json:"tokens"`
}

// Service implements the login, refresh and verification flows on top of a
// TokenService and the user lookup capabilities. It holds no mutable state
// and is safe for concurrent use.
type Service struct {
	tokens      TokenService
	credentials CredentialValidator
	users       UserLookup
}

// NewService creates a Service.
func NewService(tokens TokenService, credentials CredentialValidator, users UserLookup) *Service {
	return &Service{
		tokens:      tokens,
		credentials: credentials,
		users:       users,
	}
}

// Login authenticates email and password and issues a token pair.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	identity, err := s.credentials.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.tokens.IssueTokens(ctx, *identity)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user logged in", "user_id", identity.ID)
	return &LoginResult{User: *identity, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair minted from the user's
// current identity, so an email change is reflected in the new tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	payload, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	identity, err := s.users.LookupByID(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		logger.FromContext(ctx).Debug("refresh rejected: user no longer exists", "user_id", payload.UserID)
		return nil, ErrUserNotFound
	}

	return s.tokens.IssueTokens(ctx, *identity)
}

// VerifyAccess validates an access token and returns its payload.
func (s *Service) VerifyAccess(ctx context.Context, token string) (*TokenPayload, error) {
	return s.tokens.VerifyAccessToken(ctx, token)
}
