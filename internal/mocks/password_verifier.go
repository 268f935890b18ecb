package mocks

import (
	"errors"
	"sync"
)

// ErrPasswordMismatch is returned by MockPasswordVerifier when a comparison fails.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier implements auth.PasswordVerifier for testing.
type MockPasswordVerifier struct {
	// ShouldSucceed determines whether the password comparison should succeed
	ShouldSucceed bool

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	mu                sync.Mutex
	compareCalls      int
	compareDummyCalls int
	lastHash          string
}

// Compare implements the auth.PasswordVerifier interface.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.mu.Lock()
	m.compareCalls++
	m.lastHash = hashedPassword
	m.mu.Unlock()

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if m.ShouldSucceed {
		return nil
	}
	return ErrPasswordMismatch
}

// CompareDummy records the timing-equalising comparison made for unknown emails.
func (m *MockPasswordVerifier) CompareDummy(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compareDummyCalls++
}

// CompareCalls returns how many times Compare was called.
func (m *MockPasswordVerifier) CompareCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compareCalls
}

// CompareDummyCalls returns how many times CompareDummy was called.
func (m *MockPasswordVerifier) CompareDummyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compareDummyCalls
}

// LastHash returns the hashed password passed to the latest Compare call.
func (m *MockPasswordVerifier) LastHash() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHash
}
