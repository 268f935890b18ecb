package auth

import "strings"

// BearerScheme is the only accepted Authorization scheme. It is case-sensitive.
const BearerScheme = "Bearer"

// ExtractBearer returns the token from an Authorization header value of the
// exact form "Bearer <token>". The value is split on single spaces, so extra
// or missing parts, a different scheme, or a differently cased "bearer" are
// all rejected with ErrInvalidAuthHeader. An empty value yields
// ErrAuthHeaderMissing.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrAuthHeaderMissing
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != BearerScheme || parts[1] == "" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}
