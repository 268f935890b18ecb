package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TOKENGATE_AUTH_ACCESS_SECRET for auth.access_secret.
const EnvPrefix = "TOKENGATE"

// keys lists every configuration key so viper binds each one to its
// environment variable even when no config file mentions it.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout",
	"server.trust_proxy_headers",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"database.conn_max_lifetime",
	"auth.access_secret",
	"auth.refresh_secret",
	"auth.access_token_expiry",
	"auth.refresh_token_expiry",
	"auth.clock_skew",
	"auth.bcrypt_cost",
	"rate_limit.window",
	"rate_limit.max_requests",
	"rate_limit.auth_window",
	"rate_limit.auth_max_requests",
	"rate_limit.strict_window",
	"rate_limit.strict_max_requests",
}

// setDefaults registers the default value of every optional setting.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trust_proxy_headers", false)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("auth.access_token_expiry", "15m")
	v.SetDefault("auth.refresh_token_expiry", "7d")
	v.SetDefault("auth.clock_skew", "0s")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("rate_limit.window", "15m")
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.auth_window", "15m")
	v.SetDefault("rate_limit.auth_max_requests", 500)
	v.SetDefault("rate_limit.strict_window", "1m")
	v.SetDefault("rate_limit.strict_max_requests", 100)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Optional config.yaml in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct-level constraints and the cross-field lifetime
// ordering. It is separate from Load so tests and tools can build a Config
// by hand.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.RegisterValidation("lifetime", validateLifetime); err != nil {
		return fmt.Errorf("failed to register lifetime validator: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	access, _ := cfg.Auth.AccessTokenLifetime()
	refresh, _ := cfg.Auth.RefreshTokenLifetime()
	if access > refresh {
		return fmt.Errorf(
			"config validation failed: access token expiry %s exceeds refresh token expiry %s",
			cfg.Auth.AccessTokenExpiry,
			cfg.Auth.RefreshTokenExpiry,
		)
	}

	return nil
}

func validateLifetime(fl validator.FieldLevel) bool {
	_, err := ParseLifetime(fl.Field().String())
	return err == nil
}
