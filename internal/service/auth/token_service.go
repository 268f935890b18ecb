package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tokengate/internal/config"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/platform/logger"
)

// MinSecretLength is the minimum length in bytes of each signing secret.
const MinSecretLength = 32

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPayload is the decoded content of a verified token.
type TokenPayload struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthTokens is an access/refresh pair minted from one UserIdentity.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService mints and verifies signed tokens.
type TokenService interface {
	// IssueTokens mints an access and a refresh token for identity. Signing
	// failures are returned unclassified.
	IssueTokens(ctx context.Context, identity domain.UserIdentity) (*AuthTokens, error)

	// VerifyAccessToken checks an access token's signature and expiry.
	// Returns ErrTokenExpired or ErrInvalidToken for rejected tokens.
	VerifyAccessToken(ctx context.Context, token string) (*TokenPayload, error)

	// VerifyRefreshToken checks a refresh token's signature and expiry.
	// Every rejection, expiry included, is ErrInvalidRefreshToken.
	VerifyRefreshToken(ctx context.Context, token string) (*TokenPayload, error)
}

// tokenClaims is the JWT body. typ keeps a token of one purpose from being
// accepted as the other even if the two secrets were ever configured equal.
type tokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// hmacTokenService is an implementation of TokenService using HMAC-SHA256
// with independent access and refresh secrets.
type hmacTokenService struct {
	accessKey       []byte
	refreshKey      []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	clockSkew       time.Duration
	timeFunc        func() time.Time
}

// Ensure hmacTokenService implements TokenService interface
var _ TokenService = (*hmacTokenService)(nil)

// Option configures a token service.
type Option func(*hmacTokenService)

// WithClock replaces time.Now as the source of issuance and validation time.
func WithClock(now func() time.Time) Option {
	return func(s *hmacTokenService) {
		if now != nil {
			s.timeFunc = now
		}
	}
}

// NewTokenService creates a TokenService from the auth configuration.
func NewTokenService(cfg config.AuthConfig, opts ...Option) (TokenService, error) {
	if len(cfg.AccessSecret) < MinSecretLength {
		return nil, fmt.Errorf("access secret must be at least %d characters", MinSecretLength)
	}
	if len(cfg.RefreshSecret) < MinSecretLength {
		return nil, fmt.Errorf("refresh secret must be at least %d characters", MinSecretLength)
	}

	accessLifetime, err := cfg.AccessTokenLifetime()
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiry: %w", err)
	}
	refreshLifetime, err := cfg.RefreshTokenLifetime()
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token expiry: %w", err)
	}
	if accessLifetime <= 0 || refreshLifetime <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	if accessLifetime > refreshLifetime {
		return nil, fmt.Errorf(
			"access token lifetime %s exceeds refresh token lifetime %s",
			accessLifetime,
			refreshLifetime,
		)
	}

	var clockSkew time.Duration
	if cfg.ClockSkew != "" {
		if clockSkew, err = cfg.ClockSkewDuration(); err != nil {
			return nil, fmt.Errorf("invalid clock skew: %w", err)
		}
	}

	s := &hmacTokenService{
		accessKey:       []byte(cfg.AccessSecret),
		refreshKey:      []byte(cfg.RefreshSecret),
		accessLifetime:  accessLifetime,
		refreshLifetime: refreshLifetime,
		clockSkew:       clockSkew,
		timeFunc:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// IssueTokens implements TokenService.IssueTokens.
func (s *hmacTokenService) IssueTokens(
	ctx context.Context,
	identity domain.UserIdentity,
) (*AuthTokens, error) {
	now := s.timeFunc()

	access, err := s.sign(ctx, identity, tokenTypeAccess, now, s.accessLifetime, s.accessKey)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(ctx, identity, tokenTypeRefresh, now, s.refreshLifetime, s.refreshKey)
	if err != nil {
		return nil, err
	}

	return &AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *hmacTokenService) sign(
	ctx context.Context,
	identity domain.UserIdentity,
	tokenType string,
	now time.Time,
	lifetime time.Duration,
	key []byte,
) (string, error) {
	claims := tokenClaims{
		UserID: identity.ID,
		Email:  identity.Email,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign token",
			"error", err,
			"user_id", identity.ID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	return signed, nil
}

// VerifyAccessToken implements TokenService.VerifyAccessToken.
func (s *hmacTokenService) VerifyAccessToken(ctx context.Context, token string) (*TokenPayload, error) {
	log := logger.FromContext(ctx)

	claims, err := s.parse(token, s.accessKey, tokenTypeAccess)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		log.Debug("access token validation failed: token expired", "error", err)
		return nil, newError(KindTokenExpired, err)
	case isRejection(err):
		log.Debug("access token validation failed: invalid token", "error", err)
		return nil, newError(KindInvalidToken, err)
	default:
		log.Error("access token validation failed unexpectedly",
			"error", err,
			"error_type", fmt.Sprintf("%T", err))
		return nil, err
	}

	log.Debug("access token validated successfully",
		"user_id", claims.UserID,
		"token_id", claims.ID,
		"expiry", claims.ExpiresAt.Time)
	return claims.payload(), nil
}

// VerifyRefreshToken implements TokenService.VerifyRefreshToken.
// Expiry and every other rejection collapse into ErrInvalidRefreshToken.
func (s *hmacTokenService) VerifyRefreshToken(ctx context.Context, token string) (*TokenPayload, error) {
	log := logger.FromContext(ctx)

	claims, err := s.parse(token, s.refreshKey, tokenTypeRefresh)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired), isRejection(err):
		log.Debug("refresh token validation failed", "error", err)
		return nil, newError(KindInvalidRefreshToken, err)
	default:
		log.Error("refresh token validation failed unexpectedly",
			"error", err,
			"error_type", fmt.Sprintf("%T", err))
		return nil, err
	}

	log.Debug("refresh token validated successfully",
		"user_id", claims.UserID,
		"token_id", claims.ID)
	return claims.payload(), nil
}

// errWrongTokenType and errMissingSubject are rejection causes raised after
// the JWT library accepted the token.
var (
	errWrongTokenType = errors.New("token type mismatch")
	errMissingSubject = errors.New("token carries no user id")
)

// parse verifies signature, algorithm and expiry, then checks the token type.
// Returned errors are the raw jwt errors; callers classify them.
func (s *hmacTokenService) parse(tokenString string, key []byte, wantType string) (*tokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(s.timeFunc),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("%w: expected %s, got %q", errWrongTokenType, wantType, claims.Type)
	}
	if claims.UserID == "" {
		return nil, errMissingSubject
	}

	return claims, nil
}

// isRejection reports whether err means the token itself is unacceptable,
// as opposed to an operational failure.
func isRejection(err error) bool {
	return errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) ||
		errors.Is(err, jwt.ErrTokenInvalidClaims) ||
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing) ||
		errors.Is(err, jwt.ErrTokenNotValidYet) ||
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued) ||
		errors.Is(err, errWrongTokenType) ||
		errors.Is(err, errMissingSubject)
}

func (c *tokenClaims) payload() *TokenPayload {
	p := &TokenPayload{UserID: c.UserID, Email: c.Email}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}
