// Package domain contains the core business entities of the service: the
// registered User and the UserIdentity snapshot the token layer works with.
// It is independent of any specific storage or delivery mechanism.
package domain
