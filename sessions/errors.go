package sessions

import "github.com/imtaco/rtc-room-client/internal/errors"

const (
	ErrSessionNotFound errors.Code = "session not found"
	ErrInvalidState    errors.Code = "invalid session state"
	ErrTokenStale      errors.Code = "token stale"
	ErrTokenFailed     errors.Code = "token generation failed"
	ErrInvalidRequest  errors.Code = "invalid request"
	ErrStore           errors.Code = "session store failure"
)
