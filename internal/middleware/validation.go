package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/physioflow/practice-api/internal/schedule"
)

// RegisterValidations installs the custom binding rules on gin's validator.
// Call once at startup.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("clock", validClock)
}

// validClock accepts strict 24h "HH:MM" strings.
func validClock(fl validator.FieldLevel) bool {
	_, ok := schedule.MinutesOfClock(fl.Field().String())
	return ok
}
