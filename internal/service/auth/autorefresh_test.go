package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/mocks"
	"github.com/phrazzld/tokengate/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVerifyWithAutoRefresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	dir := newDirectory(alice, domain.UserIdentity{ID: "u2", Email: "gone@b.com"})
	svc := newAuthService(t, clock, dir)

	login, err := svc.Login(ctx, "a@b.com", "Password123!")
	require.NoError(t, err)
	gone, err := svc.Login(ctx, "gone@b.com", "Password123!")
	require.NoError(t, err)
	dir.remove("u2")

	bearer := "Bearer " + login.Tokens.AccessToken

	t.Run("valid access token", func(t *testing.T) {
		result, err := svc.VerifyWithAutoRefresh(ctx, bearer, login.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenStatusValid, result.Status)
		assert.Equal(t, "u1", result.Payload.UserID)
		assert.Nil(t, result.Tokens, "no new tokens when the access token is still valid")
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := svc.VerifyWithAutoRefresh(ctx, "", login.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrAuthHeaderMissing)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := svc.VerifyWithAutoRefresh(ctx, "Token "+login.Tokens.AccessToken, "")
		assert.ErrorIs(t, err, auth.ErrInvalidAuthHeader)
	})

	t.Run("invalid access token is not refreshed", func(t *testing.T) {
		result, err := svc.VerifyWithAutoRefresh(ctx, "Bearer garbage", login.Tokens.RefreshToken)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	// Everything below runs with the access tokens expired
	clock.Advance(20 * time.Minute)

	t.Run("expired without refresh token", func(t *testing.T) {
		_, err := svc.VerifyWithAutoRefresh(ctx, bearer, "")
		assert.ErrorIs(t, err, auth.ErrTokenExpiredNoRefresh)
		assert.Equal(t, "TOKEN_EXPIRED_NO_REFRESH", auth.KindOf(err).Code())
	})

	t.Run("expired with valid refresh token", func(t *testing.T) {
		result, err := svc.VerifyWithAutoRefresh(ctx, bearer, login.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenStatusRefreshed, result.Status)
		assert.Equal(t, "u1", result.Payload.UserID)
		assert.Equal(t, "a@b.com", result.Payload.Email)
		require.NotNil(t, result.Tokens)

		payload, err := svc.VerifyAccess(ctx, result.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, result.Payload.UserID, payload.UserID)
	})

	t.Run("expired with garbage refresh token", func(t *testing.T) {
		_, err := svc.VerifyWithAutoRefresh(ctx, bearer, "not-a-token")
		assert.ErrorIs(t, err, auth.ErrTokensExpired)
		assert.Equal(t, "TOKENS_EXPIRED", auth.KindOf(err).Code())
	})

	t.Run("expired with access token passed as refresh token", func(t *testing.T) {
		_, err := svc.VerifyWithAutoRefresh(ctx, bearer, login.Tokens.AccessToken)
		assert.ErrorIs(t, err, auth.ErrTokensExpired)
	})

	t.Run("refresh for deleted user", func(t *testing.T) {
		_, err := svc.VerifyWithAutoRefresh(ctx, "Bearer "+gone.Tokens.AccessToken, gone.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		assert.Equal(t, auth.KindUserNotFound, auth.KindOf(err))
	})
}

func TestVerifyWithAutoRefreshBothExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	svc := newAuthService(t, clock, newDirectory(alice))

	login, err := svc.Login(ctx, "a@b.com", "Password123!")
	require.NoError(t, err)

	clock.Advance(8 * 24 * time.Hour)

	_, err = svc.VerifyWithAutoRefresh(ctx, "Bearer "+login.Tokens.AccessToken, login.Tokens.RefreshToken)

	assert.ErrorIs(t, err, auth.ErrTokensExpired)
	assert.Equal(t, "Both access and refresh tokens are expired. Please login again", auth.KindOf(err).Message())
}

func TestVerifyWithAutoRefreshPropagatesLookupFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	tokenSvc := newTokenService(t, clock)
	issued, err := tokenSvc.IssueTokens(ctx, alice)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	storeDown := errors.New("too many connections")
	lookup := &mocks.MockUserLookup{
		LookupByIDFn: func(context.Context, string) (*domain.UserIdentity, error) {
			return nil, storeDown
		},
	}
	svc := auth.NewService(tokenSvc, lookup, lookup)

	_, err = svc.VerifyWithAutoRefresh(ctx, "Bearer "+issued.AccessToken, issued.RefreshToken)
	assert.Same(t, storeDown, err)
}

func TestVerifyWithAutoRefreshRefreshesAtMostOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	payload := &auth.TokenPayload{UserID: "u1", Email: "a@b.com"}
	fresh := &auth.AuthTokens{AccessToken: "fresh-access", RefreshToken: "fresh-refresh"}

	tokens := new(mocks.MockTokenService)
	// Even the freshly issued token comes back expired
	tokens.On("VerifyAccessToken", mock.Anything, mock.Anything).Return(nil, auth.ErrTokenExpired)
	tokens.On("VerifyRefreshToken", mock.Anything, "refresh").Return(payload, nil)
	tokens.On("IssueTokens", mock.Anything, alice).Return(fresh, nil)

	lookup := &mocks.MockUserLookup{
		LookupByIDFn: func(context.Context, string) (*domain.UserIdentity, error) {
			identity := alice
			return &identity, nil
		},
	}
	svc := auth.NewService(tokens, lookup, lookup)

	result, err := svc.VerifyWithAutoRefresh(ctx, "Bearer stale", "refresh")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	tokens.AssertNumberOfCalls(t, "VerifyRefreshToken", 1)
	tokens.AssertNumberOfCalls(t, "IssueTokens", 1)
	tokens.AssertNumberOfCalls(t, "VerifyAccessToken", 2)
	tokens.AssertCalled(t, "VerifyAccessToken", mock.Anything, "fresh-access")
}

func TestVerifyWithAutoRefreshSkipsRefreshForOtherFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	unexpected := errors.New("hsm unavailable")

	tests := []struct {
		name    string
		verify  error
		wantErr error
	}{
		{name: "invalid token", verify: auth.ErrInvalidToken, wantErr: auth.ErrInvalidToken},
		{name: "unexpected error", verify: unexpected, wantErr: unexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens := new(mocks.MockTokenService)
			tokens.On("VerifyAccessToken", mock.Anything, "abc").Return(nil, tt.verify)
			svc := auth.NewService(tokens, &mocks.MockUserLookup{}, &mocks.MockUserLookup{})

			_, err := svc.VerifyWithAutoRefresh(ctx, "Bearer abc", "refresh")

			assert.ErrorIs(t, err, tt.wantErr)
			tokens.AssertNotCalled(t, "VerifyRefreshToken", mock.Anything, mock.Anything)
		})
	}
}
