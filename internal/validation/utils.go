package validation

import (
	"github.com/go-playground/validator/v10"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

// Error is one entry of the "details" array of a 400 response.
type Error struct {
	Field   string `json:"field,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

// FormatValidationError lists field errors, any other binding error (bad
// JSON, wrong types) becomes a single entry without a field.
func FormatValidationError(err error) []Error {
	if err == nil {
		return nil
	}
	fieldErrs, ok := errors.As[validator.ValidationErrors](err)
	if !ok {
		return []Error{{Message: err.Error()}}
	}

	result := make([]Error, 0, len(*fieldErrs))
	for _, e := range *fieldErrs {
		msg := e.Error()
		if hint, ok := hints[e.Tag()]; ok {
			msg = e.Tag() + ": " + hint
		}
		result = append(result, Error{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: msg,
		})
	}
	return result
}
