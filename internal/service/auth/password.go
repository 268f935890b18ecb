package auth

import (
	"crypto/rand"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier defines the interface for comparing passwords.
type PasswordVerifier interface {
	// Compare compares a hashed password with its possible plaintext equivalent.
	// Returns nil on success, or an error on failure (e.g., mismatch).
	Compare(hashedPassword, password string) error
}

// dummyComparer is implemented by verifiers that can burn the same amount of
// time as a real comparison when there is no stored hash to compare against.
type dummyComparer interface {
	CompareDummy(password string)
}

// BcryptVerifier implements PasswordVerifier using bcrypt.
type BcryptVerifier struct {
	cost int

	once  sync.Once
	dummy []byte
}

// NewBcryptVerifier creates a BcryptVerifier. cost should match the cost the
// user store hashes with; out-of-range values fall back to bcrypt.DefaultCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Compare implements the PasswordVerifier interface using bcrypt.
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CompareDummy runs a comparison against a random hash of the configured
// cost and discards the result. The hash is generated on first use.
func (v *BcryptVerifier) CompareDummy(password string) {
	v.once.Do(func() {
		secret := make([]byte, 32)
		_, _ = rand.Read(secret)
		v.dummy, _ = bcrypt.GenerateFromPassword(secret, v.cost)
	})
	if v.dummy == nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(password))
}
