package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/store"
)

// MockUserStore implements store.UserStore in memory for testing.
// Users are keyed by normalized email. The Fn fields override the default
// behaviour of their method when set.
type MockUserStore struct {
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// HashPassword, when set, turns the plaintext password into the stored
	// hash on Create. By default the plaintext is stored with a "hashed:" prefix.
	HashPassword func(password string) string

	mu    sync.Mutex
	users map[string]*domain.User
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store pre-populated with users.
func NewMockUserStore(users ...*domain.User) *MockUserStore {
	m := &MockUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[domain.NormalizeEmail(u.Email)] = u
	}
	return m
}

// Create implements the UserStore interface.
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, exists := m.users[email]; exists {
		return store.ErrEmailExists
	}

	if user.Password != "" {
		if m.HashPassword != nil {
			user.HashedPassword = m.HashPassword(user.Password)
		} else {
			user.HashedPassword = "hashed:" + user.Password
		}
		user.Password = ""
	}
	user.Email = email
	m.users[email] = user
	return nil
}

// GetByEmail implements the UserStore interface.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[domain.NormalizeEmail(email)]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// GetByID implements the UserStore interface.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Delete removes a user, simulating an account deleted between token issue
// and refresh.
func (m *MockUserStore) Delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for email, user := range m.users {
		if user.ID == id {
			delete(m.users, email)
		}
	}
}

// Len returns the number of stored users.
func (m *MockUserStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
