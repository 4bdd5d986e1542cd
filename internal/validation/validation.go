package validation

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("validator engine is not of type *validator.Validate")
	}
	if err := RegisterAll(v); err != nil {
		panic(err)
	}
}

// RegisterAll installs the custom tags and aliases on v. gin's binding
// validator gets them at package init.
func RegisterAll(v *validator.Validate) error {
	for tag, fn := range customTags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return errors.Wrapf(errors.Code("validation"), err, "register %s", tag)
		}
	}
	for alias, tags := range aliases {
		v.RegisterAlias(alias, tags)
	}
	return nil
}
