package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/tokengate/internal/config"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-that-is-at-least-32-chars"
	testRefreshSecret = "refresh-secret-that-is-at-least-32-chars"
)

var (
	fixedTime    = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	testIdentity = domain.UserIdentity{ID: "u1", Email: "a@b.com"}
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:       testAccessSecret,
		RefreshSecret:      testRefreshSecret,
		AccessTokenExpiry:  "15m",
		RefreshTokenExpiry: "7d",
		ClockSkew:          "0s",
		BcryptCost:         10,
	}
}

func newTestTokenService(t *testing.T, now func() time.Time) TokenService {
	t.Helper()
	svc, err := NewTokenService(testAuthConfig(), WithClock(now))
	require.NoError(t, err)
	return svc
}

func at(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// tamper flips one character in the middle of the signature segment.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func signClaims(t *testing.T, method jwt.SigningMethod, claims tokenClaims, key interface{}) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.AuthConfig)
		wantErr string
	}{
		{name: "valid config", mutate: func(*config.AuthConfig) {}},
		{name: "empty clock skew", mutate: func(c *config.AuthConfig) { c.ClockSkew = "" }},
		{
			name:    "short access secret",
			mutate:  func(c *config.AuthConfig) { c.AccessSecret = "short" },
			wantErr: "access secret must be at least 32 characters",
		},
		{
			name:    "short refresh secret",
			mutate:  func(c *config.AuthConfig) { c.RefreshSecret = "short" },
			wantErr: "refresh secret must be at least 32 characters",
		},
		{
			name:    "bad access expiry",
			mutate:  func(c *config.AuthConfig) { c.AccessTokenExpiry = "soon" },
			wantErr: "invalid access token expiry",
		},
		{
			name:    "bad refresh expiry",
			mutate:  func(c *config.AuthConfig) { c.RefreshTokenExpiry = "later" },
			wantErr: "invalid refresh token expiry",
		},
		{
			name:    "zero access lifetime",
			mutate:  func(c *config.AuthConfig) { c.AccessTokenExpiry = "0s" },
			wantErr: "token lifetimes must be positive",
		},
		{
			name:    "access outlives refresh",
			mutate:  func(c *config.AuthConfig) { c.AccessTokenExpiry = "8d" },
			wantErr: "exceeds refresh token lifetime",
		},
		{
			name:    "bad clock skew",
			mutate:  func(c *config.AuthConfig) { c.ClockSkew = "a bit" },
			wantErr: "invalid clock skew",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testAuthConfig()
			tt.mutate(&cfg)

			svc, err := NewTokenService(cfg)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, svc)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, svc)
		})
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestTokenService(t, at(fixedTime))

	tokens, err := svc.IssueTokens(ctx, testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
	assert.Len(t, strings.Split(tokens.AccessToken, "."), 3)

	access, err := svc.VerifyAccessToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testIdentity.ID, access.UserID)
	assert.Equal(t, testIdentity.Email, access.Email)
	assert.True(t, access.IssuedAt.Equal(fixedTime))
	assert.True(t, access.ExpiresAt.Equal(fixedTime.Add(15*time.Minute)))

	refresh, err := svc.VerifyRefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, access.UserID, refresh.UserID, "both tokens carry the same identity")
	assert.Equal(t, access.Email, refresh.Email)
	assert.True(t, refresh.ExpiresAt.Equal(fixedTime.Add(7*24*time.Hour)))
}

func TestIssueTokensIsUniquePerCall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestTokenService(t, at(fixedTime))

	first, err := svc.IssueTokens(ctx, testIdentity)
	require.NoError(t, err)
	second, err := svc.IssueTokens(ctx, testIdentity)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken, "jti differs per issuance")
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestTokenClaimsWireFormat(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, at(fixedTime))
	tokens, err := svc.IssueTokens(context.Background(), testIdentity)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tokens.AccessToken, claims)
	require.NoError(t, err)

	assert.Equal(t, "u1", claims["userId"])
	assert.Equal(t, "a@b.com", claims["email"])
	assert.Equal(t, "access", claims["typ"])
	assert.Equal(t, "u1", claims["sub"])
	assert.NotEmpty(t, claims["jti"])
	assert.EqualValues(t, fixedTime.Unix(), claims["iat"])
	assert.EqualValues(t, fixedTime.Add(15*time.Minute).Unix(), claims["exp"])

	// Any HS256 implementation holding the secret can verify it
	parsed, err := jwt.Parse(tokens.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte(testAccessSecret), nil
	}, jwt.WithTimeFunc(at(fixedTime)))
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Method.Alg())
}

func TestSecretIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestTokenService(t, at(fixedTime))
	tokens, err := svc.IssueTokens(ctx, testIdentity)
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.VerifyAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessTokenExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var mu sync.Mutex
	now := fixedTime
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	setNow := func(ts time.Time) {
		mu.Lock()
		defer mu.Unlock()
		now = ts
	}

	svc := newTestTokenService(t, clock)
	tokens, err := svc.IssueTokens(ctx, testIdentity)
	require.NoError(t, err)

	setNow(fixedTime.Add(15*time.Minute - time.Second))
	_, err = svc.VerifyAccessToken(ctx, tokens.AccessToken)
	assert.NoError(t, err, "valid until the expiry instant")

	setNow(fixedTime.Add(15 * time.Minute))
	_, err = svc.VerifyAccessToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, KindTokenExpired, KindOf(err))

	// The refresh token outlives the access token
	_, err = svc.VerifyRefreshToken(ctx, tokens.RefreshToken)
	assert.NoError(t, err)

	setNow(fixedTime.Add(7 * 24 * time.Hour))
	_, err = svc.VerifyRefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "expired refresh tokens are reported as invalid")
}

func TestVerifyAccessTokenWithPastExpiry(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(t, at(fixedTime))
	claims := tokenClaims{
		UserID: "u1",
		Email:  "a@b.com",
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(fixedTime.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(-time.Minute)),
		},
	}
	expired := signClaims(t, jwt.SigningMethodHS256, claims, []byte(testAccessSecret))

	_, err := svc.VerifyAccessToken(context.Background(), expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// A bad signature is checked before expiry
	_, err = svc.VerifyAccessToken(context.Background(), tamper(expired))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsInvalidTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestTokenService(t, at(fixedTime))
	tokens, err := svc.IssueTokens(ctx, testIdentity)
	require.NoError(t, err)

	valid := func(typ string) tokenClaims {
		return tokenClaims{
			UserID: "u1",
			Email:  "a@b.com",
			Type:   typ,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(fixedTime),
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
			},
		}
	}
	noExpiry := valid(tokenTypeAccess)
	noExpiry.ExpiresAt = nil
	noUser := valid(tokenTypeAccess)
	noUser.UserID = ""
	notYetValid := valid(tokenTypeAccess)
	notYetValid.NotBefore = jwt.NewNumericDate(fixedTime.Add(time.Minute))

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, valid(tokenTypeAccess)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "not a token", token: "not-a-token"},
		{name: "two segments", token: "abc.def"},
		{name: "tampered signature", token: tamper(tokens.AccessToken)},
		{name: "wrong secret", token: signClaims(t, jwt.SigningMethodHS256, valid(tokenTypeAccess), []byte("some-other-secret-of-sufficient-size"))},
		{name: "alg none", token: noneSigned},
		{name: "HS512 with right secret", token: signClaims(t, jwt.SigningMethodHS512, valid(tokenTypeAccess), []byte(testAccessSecret))},
		{name: "refresh type signed with access secret", token: signClaims(t, jwt.SigningMethodHS256, valid(tokenTypeRefresh), []byte(testAccessSecret))},
		{name: "missing type", token: signClaims(t, jwt.SigningMethodHS256, valid(""), []byte(testAccessSecret))},
		{name: "missing expiry", token: signClaims(t, jwt.SigningMethodHS256, noExpiry, []byte(testAccessSecret))},
		{name: "missing user id", token: signClaims(t, jwt.SigningMethodHS256, noUser, []byte(testAccessSecret))},
		{name: "not yet valid", token: signClaims(t, jwt.SigningMethodHS256, notYetValid, []byte(testAccessSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload, err := svc.VerifyAccessToken(ctx, tt.token)
			assert.Nil(t, payload)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Equal(t, KindInvalidToken, KindOf(err))

			_, err = svc.VerifyRefreshToken(ctx, tt.token)
			assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		})
	}
}

func TestVerifyHonoursClockSkew(t *testing.T) {
	t.Parallel()

	cfg := testAuthConfig()
	cfg.ClockSkew = "30s"

	issuer, err := NewTokenService(cfg, WithClock(at(fixedTime)))
	require.NoError(t, err)
	tokens, err := issuer.IssueTokens(context.Background(), testIdentity)
	require.NoError(t, err)

	lenient, err := NewTokenService(cfg, WithClock(at(fixedTime.Add(15*time.Minute+10*time.Second))))
	require.NoError(t, err)
	_, err = lenient.VerifyAccessToken(context.Background(), tokens.AccessToken)
	assert.NoError(t, err, "within leeway")

	late, err := NewTokenService(cfg, WithClock(at(fixedTime.Add(15*time.Minute+30*time.Second))))
	require.NoError(t, err)
	_, err = late.VerifyAccessToken(context.Background(), tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenServiceConcurrentUse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestTokenService(t, at(fixedTime))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens, err := svc.IssueTokens(ctx, testIdentity)
			if err != nil {
				errs <- err
				return
			}
			if _, err := svc.VerifyAccessToken(ctx, tokens.AccessToken); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent issue/verify failed: %v", err)
	}
}
