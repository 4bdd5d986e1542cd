package roomsvc

import "github.com/imtaco/rtc-room-client/internal/errors"

const (
	ErrProviderUnavailable errors.Code = "provider unavailable"
	ErrProviderRequest     errors.Code = "provider request failed"
	ErrInvalidWebhook      errors.Code = "invalid webhook"
)
