package api

import (
	"net/http"

	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/store"
)

// UserHandler serves user profiles.
type UserHandler struct {
	users    store.UserStore
	failures shared.FailureRecorder
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users store.UserStore, failures shared.FailureRecorder) *UserHandler {
	return &UserHandler{users: users, failures: failures}
}

// GetUser handles GET /api/users/{id}. Ownership is enforced by middleware.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, r, err, h.failures)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}
