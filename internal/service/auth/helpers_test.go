package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/tokengate/internal/config"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/mocks"
	"github.com/phrazzld/tokengate/internal/service/auth"
	"github.com/stretchr/testify/require"
)

var (
	startTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	alice     = domain.UserIdentity{ID: "u1", Email: "a@b.com"}
)

// fakeClock is a manually advanced clock shared by the token service under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: startTime}
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

func newTokenService(t *testing.T, clock *fakeClock) auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(config.AuthConfig{
		AccessSecret:       "access-secret-that-is-at-least-32-chars",
		RefreshSecret:      "refresh-secret-that-is-at-least-32-chars",
		AccessTokenExpiry:  "15m",
		RefreshTokenExpiry: "7d",
		ClockSkew:          "0s",
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

// directory is an in-memory user directory keyed by id with one password per user.
type directory struct {
	mu        sync.Mutex
	users     map[string]domain.UserIdentity
	passwords map[string]string
}

func newDirectory(users ...domain.UserIdentity) *directory {
	d := &directory{
		users:     make(map[string]domain.UserIdentity),
		passwords: make(map[string]string),
	}
	for _, u := range users {
		d.users[u.ID] = u
		d.passwords[u.ID] = "Password123!"
	}
	return d
}

func (d *directory) lookup() *mocks.MockUserLookup {
	return &mocks.MockUserLookup{
		ValidateCredentialsFn: func(_ context.Context, email, password string) (*domain.UserIdentity, error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			for id, u := range d.users {
				if u.Email == email && d.passwords[id] == password {
					identity := u
					return &identity, nil
				}
			}
			return nil, nil
		},
		LookupByIDFn: func(_ context.Context, id string) (*domain.UserIdentity, error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			u, ok := d.users[id]
			if !ok {
				return nil, nil
			}
			return &u, nil
		},
	}
}

func (d *directory) setEmail(id, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.users[id]
	u.Email = email
	d.users[id] = u
}

func (d *directory) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, id)
}

// newAuthService wires a Service over a real token service and the directory.
func newAuthService(t *testing.T, clock *fakeClock, dir *directory) *auth.Service {
	t.Helper()
	lookup := dir.lookup()
	return auth.NewService(newTokenService(t, clock), lookup, lookup)
}
