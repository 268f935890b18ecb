package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/service/auth"
)

// RegisterRequest defines the payload for the user registration endpoint.
// Name and password rules beyond length are enforced by domain.NewUser.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest carries a refresh token. It is the required body of
// the refresh endpoint and the optional body of verify, me and logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse defines the successful response of the login endpoint.
type LoginResponse struct {
	User   domain.UserIdentity `json:"user"`
	Tokens *auth.AuthTokens    `json:"tokens"`
}

// TokensResponse defines the successful response of the refresh endpoint.
type TokensResponse struct {
	Tokens *auth.AuthTokens `json:"tokens"`
}

// VerifyResponse is returned by the endpoints that verify with auto refresh.
// Tokens is present only when TokenStatus is "refreshed"; the client must
// replace its stored pair with it.
type VerifyResponse struct {
	User        domain.UserIdentity `json:"user"`
	TokenStatus auth.TokenStatus    `json:"token_status"`
	Tokens      *auth.AuthTokens    `json:"tokens,omitempty"`
}

// MessageResponse is a response carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func newVerifyResponse(result *auth.VerifyResult) VerifyResponse {
	return VerifyResponse{
		User: domain.UserIdentity{
			ID:    result.Payload.UserID,
			Email: result.Payload.Email,
		},
		TokenStatus: result.Status,
		Tokens:      result.Tokens,
	}
}
