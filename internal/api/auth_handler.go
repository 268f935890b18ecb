package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/platform/logger"
	"github.com/phrazzld/tokengate/internal/service/auth"
	"github.com/phrazzld/tokengate/internal/store"
)

// AuthService is the part of *auth.Service the handlers use.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.AuthTokens, error)
	VerifyWithAutoRefresh(ctx context.Context, header, refreshToken string) (*auth.VerifyResult, error)
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	service  AuthService
	users    store.UserStore
	failures shared.FailureRecorder
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// failures may be nil.
func NewAuthHandler(service AuthService, users store.UserStore, failures shared.FailureRecorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		users:    users,
		failures: failures,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		handleError(w, r, err, h.failures)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = domain.NormalizeEmail(req.Email)
	if err := shared.ValidateRequest(req); err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	user, err := domain.NewUser(req.Name, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	logger.FromContext(r.Context()).Info("user registered", "user_id", user.ID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, newUserResponse(user))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		handleError(w, r, err, h.failures)
		return
	}
	req.Email = domain.NormalizeEmail(req.Email)
	if err := shared.ValidateRequest(req); err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		User:   result.User,
		Tokens: result.Tokens,
	})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeOptionalJSON(w, r, &req); err != nil {
		handleError(w, r, err, h.failures)
		return
	}
	if req.RefreshToken == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			CodeMissingRefreshToken, "Refresh token is required")
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokensResponse{Tokens: tokens})
}

// Verify handles POST /api/auth/verify. An expired access token is
// refreshed when the body carries a refresh token.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeOptionalJSON(w, r, &req); err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	result, err := h.service.VerifyWithAutoRefresh(r.Context(), r.Header.Get("Authorization"), req.RefreshToken)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newVerifyResponse(result))
}

// Me handles GET /api/auth/me. The refresh token may come from the
// X-Refresh-Token header or the body.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := optionalRefreshToken(w, r)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	result, err := h.service.VerifyWithAutoRefresh(r.Context(), r.Header.Get("Authorization"), refreshToken)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	logger.FromContext(r.Context()).Debug("profile retrieved",
		"user_id", result.Payload.UserID,
		"token_status", string(result.Status))
	shared.RespondWithJSON(w, r, http.StatusOK, newVerifyResponse(result))
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout only
// confirms the caller and records the event. A session whose tokens have all
// expired is already logged out and still gets a 200.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := optionalRefreshToken(w, r)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	log := logger.FromContext(r.Context())
	result, err := h.service.VerifyWithAutoRefresh(r.Context(), r.Header.Get("Authorization"), refreshToken)
	switch kind := auth.KindOf(err); {
	case err == nil:
		log.Info("user logged out", "user_id", result.Payload.UserID)
		shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Logout successful"})
	case kind == auth.KindTokenExpiredNoRefresh, kind == auth.KindTokensExpired:
		log.Warn("logout attempted with expired tokens", "code", kind.Code())
		shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{
			Message: "Logout successful (token was already expired)",
		})
	default:
		handleError(w, r, err, h.failures)
	}
}
