// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrInvalidUserID       = errors.New("invalid user ID format")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrInvalidName         = errors.New("name can only contain letters, spaces, hyphens, and apostrophes")
	ErrNameTooLong         = errors.New("name must not exceed 100 characters")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmailTooLong        = errors.New("email must not exceed 255 characters")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrPasswordComplexity  = errors.New("password must contain a lowercase letter, an uppercase letter, a digit, and one of @$!%*?&")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

var validationErrors = []error{
	ErrEmptyUserID,
	ErrInvalidUserID,
	ErrEmptyName,
	ErrInvalidName,
	ErrNameTooLong,
	ErrEmptyEmail,
	ErrInvalidEmail,
	ErrEmailTooLong,
	ErrPasswordTooShort,
	ErrPasswordTooLong,
	ErrPasswordComplexity,
	ErrEmptyPassword,
	ErrEmptyHashedPassword,
}

// IsValidationError reports whether err is one of the user validation errors
// above. Their messages are safe to show to clients.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
