package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/domain"
)

// RefreshTokenHeader lets GET requests carry a refresh token without a body.
const RefreshTokenHeader = "X-Refresh-Token"

// getPathUUID extracts and parses a UUID path parameter. A missing or
// malformed value is reported as domain.ErrInvalidUserID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidUserID
	}
	return id, nil
}

// optionalRefreshToken reads a refresh token from the X-Refresh-Token header,
// falling back to an optional JSON body.
func optionalRefreshToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if token := r.Header.Get(RefreshTokenHeader); token != "" {
		return token, nil
	}

	var req RefreshTokenRequest
	if err := shared.DecodeOptionalJSON(w, r, &req); err != nil {
		return "", err
	}
	return req.RefreshToken, nil
}
