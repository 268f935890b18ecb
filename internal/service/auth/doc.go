// Package auth implements stateless JWT authentication: issuing access and
// refresh token pairs, verifying them, refreshing an expired access token,
// and extracting bearer tokens from Authorization headers.
//
// Access and refresh tokens are HS256 JWTs signed with independent secrets.
// Expected failures are reported as *Error values tagged with a Kind, which
// fixes the HTTP status, code and message for each failure. Any other error
// (a signing failure, a user store outage) is returned unclassified.
package auth
