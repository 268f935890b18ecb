package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/platform/logger"
	"github.com/phrazzld/tokengate/internal/store"
)

// CredentialValidator checks an email/password pair.
type CredentialValidator interface {
	// ValidateCredentials returns the matching identity, or nil when the
	// email is unknown or the password is wrong. Errors are reserved for
	// data-access failures.
	ValidateCredentials(ctx context.Context, email, password string) (*domain.UserIdentity, error)
}

// UserLookup resolves a user id to its current identity.
type UserLookup interface {
	// LookupByID returns nil when no such user exists. Errors are reserved
	// for data-access failures.
	LookupByID(ctx context.Context, id string) (*domain.UserIdentity, error)
}

// StoreUserLookup implements CredentialValidator and UserLookup on top of a
// store.UserStore.
type StoreUserLookup struct {
	users    store.UserStore
	verifier PasswordVerifier
}

var (
	_ CredentialValidator = (*StoreUserLookup)(nil)
	_ UserLookup          = (*StoreUserLookup)(nil)
)

// NewStoreUserLookup creates a StoreUserLookup.
func NewStoreUserLookup(users store.UserStore, verifier PasswordVerifier) *StoreUserLookup {
	return &StoreUserLookup{users: users, verifier: verifier}
}

// ValidateCredentials implements CredentialValidator. Unknown emails still
// pay for a password comparison when the verifier supports it.
func (l *StoreUserLookup) ValidateCredentials(
	ctx context.Context,
	email, password string,
) (*domain.UserIdentity, error) {
	log := logger.FromContext(ctx)

	user, err := l.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			if d, ok := l.verifier.(dummyComparer); ok {
				d.CompareDummy(password)
			}
			log.Debug("credential check failed: unknown email")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	if err := l.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("credential check failed: password mismatch", "user_id", user.ID.String())
		return nil, nil
	}

	identity := user.Identity()
	return &identity, nil
}

// LookupByID implements UserLookup. Ids that are not UUIDs cannot exist and
// resolve to nil.
func (l *StoreUserLookup) LookupByID(ctx context.Context, id string) (*domain.UserIdentity, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		logger.FromContext(ctx).Debug("user lookup skipped: id is not a uuid")
		return nil, nil
	}

	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user by id: %w", err)
	}

	identity := user.Identity()
	return &identity, nil
}
