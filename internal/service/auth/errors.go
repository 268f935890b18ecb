package auth

import (
	"errors"
	"net/http"
)

// Kind classifies an expected authentication failure. Each kind maps to a
// fixed HTTP status, machine-readable code and user-facing message.
type Kind int

const (
	// KindUnknown is reported by KindOf for errors that are not *Error.
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindInvalidRefreshToken
	KindUserNotFound
	KindTokenExpired
	KindInvalidToken
	KindAuthHeaderMissing
	KindInvalidAuthHeader
	KindTokenExpiredNoRefresh
	KindTokensExpired
)

type kindDetails struct {
	status  int
	code    string
	message string
}

var kinds = [...]kindDetails{
	KindUnknown:             {http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred"},
	KindInvalidCredentials:  {http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials"},
	KindInvalidRefreshToken: {http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token"},
	KindUserNotFound:        {http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
	KindTokenExpired:        {http.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired"},
	KindInvalidToken:        {http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token"},
	KindAuthHeaderMissing:   {http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header missing"},
	KindInvalidAuthHeader:   {http.StatusUnauthorized, "INVALID_AUTH_HEADER", "Invalid authorization header format"},
	KindTokenExpiredNoRefresh: {
		http.StatusUnauthorized,
		"TOKEN_EXPIRED_NO_REFRESH",
		"Access token expired and no refresh token provided",
	},
	KindTokensExpired: {
		http.StatusUnauthorized,
		"TOKENS_EXPIRED",
		"Both access and refresh tokens are expired. Please login again",
	},
}

func (k Kind) details() kindDetails {
	if k < 0 || int(k) >= len(kinds) {
		return kinds[KindUnknown]
	}
	return kinds[k]
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int { return k.details().status }

// Code returns the machine-readable error code, e.g. "TOKEN_EXPIRED".
func (k Kind) Code() string { return k.details().code }

// Message returns the human-readable message sent to clients.
func (k Kind) Message() string { return k.details().message }

// String implements fmt.Stringer.
func (k Kind) String() string { return k.Code() }

// Error is an expected authentication failure. Err optionally carries the
// underlying cause (e.g. the JWT parser error) for logging; it is never
// shown to clients.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Message() + ": " + e.Err.Error()
	}
	return e.Kind.Message()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the package
// sentinels match any error of their kind regardless of cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidCredentials    = &Error{Kind: KindInvalidCredentials}
	ErrInvalidRefreshToken   = &Error{Kind: KindInvalidRefreshToken}
	ErrUserNotFound          = &Error{Kind: KindUserNotFound}
	ErrTokenExpired          = &Error{Kind: KindTokenExpired}
	ErrInvalidToken          = &Error{Kind: KindInvalidToken}
	ErrAuthHeaderMissing     = &Error{Kind: KindAuthHeaderMissing}
	ErrInvalidAuthHeader     = &Error{Kind: KindInvalidAuthHeader}
	ErrTokenExpiredNoRefresh = &Error{Kind: KindTokenExpiredNoRefresh}
	ErrTokensExpired         = &Error{Kind: KindTokensExpired}
)

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindUnknown
}
