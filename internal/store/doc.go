// Package store defines the persistence interfaces for user accounts.
// Implementations live under internal/platform; the service layer depends
// only on these interfaces.
package store
