package mocks

import (
	"context"

	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/service/auth"
)

// MockUserLookup implements auth.CredentialValidator and auth.UserLookup.
// Unset functions behave as "no such user".
type MockUserLookup struct {
	ValidateCredentialsFn func(ctx context.Context, email, password string) (*domain.UserIdentity, error)
	LookupByIDFn          func(ctx context.Context, id string) (*domain.UserIdentity, error)
}

var (
	_ auth.CredentialValidator = (*MockUserLookup)(nil)
	_ auth.UserLookup          = (*MockUserLookup)(nil)
)

// ValidateCredentials implements auth.CredentialValidator.
func (m *MockUserLookup) ValidateCredentials(
	ctx context.Context,
	email, password string,
) (*domain.UserIdentity, error) {
	if m.ValidateCredentialsFn != nil {
		return m.ValidateCredentialsFn(ctx, email, password)
	}
	return nil, nil
}

// LookupByID implements auth.UserLookup.
func (m *MockUserLookup) LookupByID(ctx context.Context, id string) (*domain.UserIdentity, error) {
	if m.LookupByIDFn != nil {
		return m.LookupByIDFn(ctx, id)
	}
	return nil, nil
}
