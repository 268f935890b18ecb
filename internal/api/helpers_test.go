package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/tokengate/internal/api"
	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/config"
	"github.com/phrazzld/tokengate/internal/mocks"
	"github.com/phrazzld/tokengate/internal/platform/metrics"
	"github.com/phrazzld/tokengate/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const testPassword = "Password123!"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEnv is the full HTTP stack over an in-memory user store.
type testEnv struct {
	router  http.Handler
	users   *mocks.MockUserStore
	clock   *fakeClock
	metrics *metrics.Metrics
}

type envOption func(*api.RouterConfig)

func withLimits(limits api.RateLimits) envOption {
	return func(cfg *api.RouterConfig) { cfg.Limits = limits }
}

func withTrustedProxy() envOption {
	return func(cfg *api.RouterConfig) { cfg.TrustProxyHeaders = true }
}

func withPing(ping func(ctx context.Context) error) envOption {
	return func(cfg *api.RouterConfig) { cfg.Ping = ping }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenService(config.AuthConfig{
		AccessSecret:       "access-secret-that-is-at-least-32-chars",
		RefreshSecret:      "refresh-secret-that-is-at-least-32-chars",
		AccessTokenExpiry:  "15m",
		RefreshTokenExpiry: "7d",
		ClockSkew:          "0s",
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)

	users := mocks.NewMockUserStore()
	verifier := &mocks.MockPasswordVerifier{
		CompareFn: func(hashedPassword, password string) error {
			if hashedPassword == "hashed:"+password {
				return nil
			}
			return mocks.ErrPasswordMismatch
		},
	}
	lookup := auth.NewStoreUserLookup(users, verifier)
	m := metrics.New()

	cfg := api.RouterConfig{
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Auth:    auth.NewService(tokens, lookup, lookup),
		Users:   users,
		Metrics: m,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testEnv{
		router:  api.NewRouter(cfg),
		users:   users,
		clock:   clock,
		metrics: m,
	}
}

// do sends a request. body may be nil, a raw string, or a value to encode as JSON.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:5000"
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, name, email string) api.UserResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: testPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.UserResponse](t, rec)
}

func (e *testEnv) login(t *testing.T, email string) api.LoginResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{
		Email:    email,
		Password: testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[api.LoginResponse](t, rec)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec).Code
}
