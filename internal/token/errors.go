package token

import "github.com/imtaco/rtc-room-client/internal/errors"

const (
	ErrInvalidRequest     errors.Code = "invalid token request"
	ErrMissingCredentials errors.Code = "missing api key or secret"
	ErrSignFailed         errors.Code = "token signing failed"
	ErrInvalidToken       errors.Code = "invalid token"
	ErrNoToken            errors.Code = "no token"
)
