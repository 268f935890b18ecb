package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/service/auth"
)

// AccessVerifier verifies access tokens. *auth.Service implements it.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*auth.TokenPayload, error)
}

type payloadKey struct{}

// AuthMiddleware provides bearer token authentication for routes.
type AuthMiddleware struct {
	verifier AccessVerifier
	failures shared.FailureRecorder
}

// NewAuthMiddleware creates a new AuthMiddleware. failures may be nil.
func NewAuthMiddleware(verifier AccessVerifier, failures shared.FailureRecorder) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		failures: failures,
	}
}

// Authenticate validates the bearer token in the Authorization header and
// adds the verified payload and user ID to the request context.
// Expired access tokens are rejected here; refresh happens only on the
// endpoints that accept a refresh token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearer(r.Header.Get("Authorization"))
		if err != nil {
			shared.RespondWithAuthError(w, r, err, m.failures)
			return
		}

		payload, err := m.verifier.VerifyAccess(r.Context(), token)
		if err != nil {
			shared.RespondWithAuthError(w, r, err, m.failures)
			return
		}

		next.ServeHTTP(w, r.WithContext(withTokenPayload(r.Context(), payload)))
	})
}

// RequireOwnership rejects authenticated requests whose URL parameter param
// names a different user. IDs are compared as UUIDs, so case does not matter.
// It must run after Authenticate.
func RequireOwnership(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := GetTokenPayload(r)
			if !ok {
				shared.RespondWithAuthError(w, r, auth.ErrAuthHeaderMissing, nil)
				return
			}
			if !sameUser(chi.URLParam(r, param), payload.UserID) {
				shared.RespondWithError(w, r, http.StatusForbidden, "OWNERSHIP_REQUIRED",
					"Access denied: you can only access your own resources")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the authenticated user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (string, bool) {
	return shared.GetUserID(r.Context())
}

// GetTokenPayload returns the verified access token payload set by Authenticate.
func GetTokenPayload(r *http.Request) (*auth.TokenPayload, bool) {
	payload, ok := r.Context().Value(payloadKey{}).(*auth.TokenPayload)
	return payload, ok
}

func withTokenPayload(ctx context.Context, payload *auth.TokenPayload) context.Context {
	ctx = shared.WithUserID(ctx, payload.UserID)
	return context.WithValue(ctx, payloadKey{}, payload)
}

func sameUser(pathID, userID string) bool {
	a, err := uuid.Parse(pathID)
	if err != nil {
		return false
	}
	b, err := uuid.Parse(userID)
	if err != nil {
		return false
	}
	return a == b
}
