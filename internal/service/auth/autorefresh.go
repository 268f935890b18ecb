package auth

import (
	"context"
	"errors"

	"github.com/phrazzld/tokengate/internal/platform/logger"
)

// TokenStatus reports how a VerifyWithAutoRefresh call authenticated.
type TokenStatus string

const (
	TokenStatusValid     TokenStatus = "valid"
	TokenStatusRefreshed TokenStatus = "refreshed"
)

// VerifyResult is the outcome of a successful VerifyWithAutoRefresh.
// Tokens is set only when Status is TokenStatusRefreshed and must be sent
// back to the client.
type VerifyResult struct {
	Payload *TokenPayload
	Tokens  *AuthTokens
	Status  TokenStatus
}

type verifyState int

const (
	stateChecking verifyState = iota
	stateAttemptingRefresh
	stateDone
)

func (s verifyState) String() string {
	switch s {
	case stateChecking:
		return "checking"
	case stateAttemptingRefresh:
		return "attempting_refresh"
	default:
		return "done"
	}
}

// autoRefresh holds one run of the verify-with-auto-refresh state machine.
type autoRefresh struct {
	svc          *Service
	header       string
	refreshToken string

	state  verifyState
	result *VerifyResult
	err    error
}

// VerifyWithAutoRefresh authenticates the access token in an Authorization
// header value. If that token has expired and refreshToken is non-empty, it
// refreshes once and authenticates with the new access token.
//
// Errors: header errors and ErrInvalidToken pass through; an expired token
// without refreshToken is ErrTokenExpiredNoRefresh; a rejected refresh token
// is ErrTokensExpired. Other refresh failures, ErrUserNotFound included,
// pass through unchanged.
func (s *Service) VerifyWithAutoRefresh(
	ctx context.Context,
	header, refreshToken string,
) (*VerifyResult, error) {
	run := &autoRefresh{
		svc:          s,
		header:       header,
		refreshToken: refreshToken,
		state:        stateChecking,
	}
	log := logger.FromContext(ctx)

	for run.state != stateDone {
		from := run.state
		switch run.state {
		case stateChecking:
			run.check(ctx)
		case stateAttemptingRefresh:
			run.attemptRefresh(ctx)
		}
		log.Debug("token verification transition",
			"from", from.String(),
			"to", run.state.String())
	}

	return run.result, run.err
}

func (r *autoRefresh) check(ctx context.Context) {
	token, err := ExtractBearer(r.header)
	if err != nil {
		r.fail(err)
		return
	}

	payload, err := r.svc.VerifyAccess(ctx, token)
	switch {
	case err == nil:
		r.succeed(&VerifyResult{Payload: payload, Status: TokenStatusValid})
	case errors.Is(err, ErrTokenExpired) && r.refreshToken != "":
		r.state = stateAttemptingRefresh
	case errors.Is(err, ErrTokenExpired):
		r.fail(newError(KindTokenExpiredNoRefresh, err))
	default:
		r.fail(err)
	}
}

// attemptRefresh always ends in stateDone, so a refresh is tried at most once.
func (r *autoRefresh) attemptRefresh(ctx context.Context) {
	tokens, err := r.svc.Refresh(ctx, r.refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			r.fail(newError(KindTokensExpired, err))
			return
		}
		r.fail(err)
		return
	}

	payload, err := r.svc.VerifyAccess(ctx, tokens.AccessToken)
	if err != nil {
		r.fail(err)
		return
	}

	logger.FromContext(ctx).Info("access token refreshed", "user_id", payload.UserID)
	r.succeed(&VerifyResult{Payload: payload, Tokens: tokens, Status: TokenStatusRefreshed})
}

func (r *autoRefresh) succeed(result *VerifyResult) {
	r.result = result
	r.state = stateDone
}

func (r *autoRefresh) fail(err error) {
	r.err = err
	r.state = stateDone
}
