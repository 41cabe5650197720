package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/huddle-api/pkg/clock"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

// NewValidator returns a validator that understands the clocktime tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerClockValidation(v)
	return v
}

// registerClockValidation accepts any string clock.Parse accepts, including
// the unset placeholder; range checks happen in the services.
func registerClockValidation(v *validator.Validate) {
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := clock.Parse(fl.Field().String())
		return err == nil
	})
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	registerClockValidation(v)
	return v
}

// validationError turns validator output into a VALIDATION_ERROR, or an
// INVALID_TIME_FORMAT when the only problem is a malformed time.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		allClock := true
		for _, fe := range fieldErrs {
			if fe.Tag() != "clocktime" {
				allClock = false
				break
			}
		}
		if allClock {
			return appErrors.WithCause(appErrors.ErrInvalidTimeFormat, err)
		}
		first := fieldErrs[0]
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("%s: %s failed on %s", message, first.Field(), first.Tag()))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// clockError maps engine errors onto their HTTP-aware counterparts.
func clockError(err error, subject string) error {
	switch {
	case errors.Is(err, clock.ErrInvalidTimeFormat):
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status,
			fmt.Sprintf("%s: %s", subject, appErrors.ErrInvalidTimeFormat.Message))
	case errors.Is(err, clock.ErrInvalidWindow):
		return appErrors.Wrap(err, appErrors.ErrInvalidWindow.Code, appErrors.ErrInvalidWindow.Status,
			fmt.Sprintf("%s: %s", subject, appErrors.ErrInvalidWindow.Message))
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, subject)
	}
}
