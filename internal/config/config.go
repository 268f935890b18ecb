package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int    `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout" validate:"required,lifetime"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string `mapstructure:"url"                validate:"required,url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"     validate:"gt=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"     validate:"gte=0"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"  validate:"required,lifetime"`
}

// AuthConfig contains all authentication and authorization settings.
//
// Access and refresh tokens are signed with independent secrets, so a leaked
// access secret cannot mint refresh tokens.
type AuthConfig struct {
	AccessSecret       string `mapstructure:"access_secret"        validate:"required,min=32"`
	RefreshSecret      string `mapstructure:"refresh_secret"       validate:"required,min=32,nefield=AccessSecret"`
	AccessTokenExpiry  string `mapstructure:"access_token_expiry"  validate:"required,lifetime"`
	RefreshTokenExpiry string `mapstructure:"refresh_token_expiry" validate:"required,lifetime"`
	ClockSkew          string `mapstructure:"clock_skew"           validate:"required,lifetime"`
	BcryptCost         int    `mapstructure:"bcrypt_cost"          validate:"gte=10,lte=15"`
}

// RateLimitConfig controls the per-client request budgets. The general tier
// applies to every API route; the auth and strict tiers are layered on top of
// login and refresh respectively.
type RateLimitConfig struct {
	Window            string `mapstructure:"window"              validate:"required,lifetime"`
	MaxRequests       int    `mapstructure:"max_requests"        validate:"gt=0"`
	AuthWindow        string `mapstructure:"auth_window"         validate:"required,lifetime"`
	AuthMaxRequests   int    `mapstructure:"auth_max_requests"   validate:"gt=0"`
	StrictWindow      string `mapstructure:"strict_window"       validate:"required,lifetime"`
	StrictMaxRequests int    `mapstructure:"strict_max_requests" validate:"gt=0"`
}

// AccessTokenLifetime returns the parsed access token lifetime.
func (c AuthConfig) AccessTokenLifetime() (time.Duration, error) {
	return ParseLifetime(c.AccessTokenExpiry)
}

// RefreshTokenLifetime returns the parsed refresh token lifetime.
func (c AuthConfig) RefreshTokenLifetime() (time.Duration, error) {
	return ParseLifetime(c.RefreshTokenExpiry)
}

// ClockSkewDuration returns the leeway applied to token time claims.
func (c AuthConfig) ClockSkewDuration() (time.Duration, error) {
	return ParseLifetime(c.ClockSkew)
}

// ParseLifetime parses a duration string. On top of the time.ParseDuration
// syntax it accepts a single integer followed by "d" (days) or "w" (weeks),
// e.g. "7d" or "2w", which is how token expiries are usually written.
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	unit := time.Duration(0)
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}

	if unit != 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("invalid duration %q: negative", s)
		}
		if int64(n) > math.MaxInt64/int64(unit) {
			return 0, fmt.Errorf("invalid duration %q: out of range", s)
		}
		return time.Duration(n) * unit, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	return d, nil
}
