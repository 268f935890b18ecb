package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/domain"
	"github.com/phrazzld/tokengate/internal/store"
)

// Error codes of the API layer. Authentication codes come from auth.Kind.
const (
	CodeInvalidJSON         = "INVALID_JSON"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeUserExists          = "USER_EXISTS"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeMissingRefreshToken = "MISSING_REFRESH_TOKEN"
)

// handleError writes the response for err. Request, validation and store
// errors are mapped here; everything else goes through the auth error
// mapping, which turns unclassified errors into a 500.
func handleError(w http.ResponseWriter, r *http.Request, err error, failures shared.FailureRecorder) {
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, shared.ErrInvalidJSON):
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			CodeInvalidJSON, "Invalid JSON body", err)
	case errors.As(err, &verrs):
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			CodeValidationError, shared.ValidationMessage(err), err)
	case domain.IsValidationError(err):
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			CodeValidationError, err.Error(), err)
	case store.IsDuplicateError(err):
		shared.RespondWithErrorAndLog(w, r, http.StatusConflict,
			CodeUserExists, "User with this email already exists", err)
	case store.IsNotFoundError(err):
		shared.RespondWithErrorAndLog(w, r, http.StatusNotFound,
			CodeUserNotFound, "User not found", err)
	default:
		shared.RespondWithAuthError(w, r, err, failures)
	}
}
