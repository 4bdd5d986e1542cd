package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	roomNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)
	// printable, no control characters
	displayNameRegex = regexp.MustCompile(`^[^\p{Cc}]{1,64}$`)
)

var customTags = map[string]validator.Func{
	"roomname":    ValidateRoomName,
	"displayname": ValidateDisplayName,
}

var aliases = map[string]string{
	"sessionid": "uuid4",
	"identity":  "printascii,min=1,max=128",
}

// hints are shown to API clients instead of the validator's Go struct message.
var hints = map[string]string{
	"roomname":    "3-64 letters, digits, '-' or '_'",
	"displayname": "1-64 characters without control characters",
	"sessionid":   "a session id (uuid v4)",
	"identity":    "1-128 printable ASCII characters",
	"required":    "is required",
	"max":         "too many items or characters",
}

// ValidateRoomName validates room name format: 3-64 characters, alphanumeric with hyphens and underscores
func ValidateRoomName(fl validator.FieldLevel) bool {
	return roomNameRegex.MatchString(fl.Field().String())
}

func ValidateDisplayName(fl validator.FieldLevel) bool {
	return displayNameRegex.MatchString(fl.Field().String())
}

// IsRoomName reports whether s is a valid room name outside of request binding.
func IsRoomName(s string) bool {
	return roomNameRegex.MatchString(s)
}
