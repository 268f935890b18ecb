package shared

import (
	"net/http"

	"github.com/phrazzld/tokengate/internal/service/auth"
)

// FailureRecorder counts authentication failures by error code.
type FailureRecorder interface {
	RecordAuthFailure(code string)
}

// RespondWithAuthError writes err as an error response. Authentication
// failures carry their kind's status, code and message; anything else is a
// 500 whose cause is only logged. recorder may be nil.
func RespondWithAuthError(w http.ResponseWriter, r *http.Request, err error, recorder FailureRecorder) {
	kind := auth.KindOf(err)
	if kind == auth.KindUnknown {
		RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			kind.Code(), kind.Message(), err)
		return
	}

	if recorder != nil {
		recorder.RecordAuthFailure(kind.Code())
	}

	var opts []ResponseOption
	if kind == auth.KindInvalidCredentials || kind == auth.KindTokensExpired {
		opts = append(opts, WithElevatedLogLevel())
	}
	RespondWithErrorAndLog(w, r, kind.Status(), kind.Code(), kind.Message(), err, opts...)
}
