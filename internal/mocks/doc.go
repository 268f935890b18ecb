// Package mocks provides shared test doubles for the store and auth
// interfaces, so handler and service tests do not each define their own.
//
// MockUserStore is an in-memory store with optional per-method overrides.
// MockTokenService is a testify/mock double; set expectations with On.
//
//	tokens := new(mocks.MockTokenService)
//	tokens.On("VerifyAccessToken", mock.Anything, "abc").Return(payload, nil)
package mocks
