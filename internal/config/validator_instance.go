package config

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	stepNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_ -]*$`)
)

// validatorInstance configures and returns the shared validator instance
// used across the config package, registering custom tags on first use.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("step_name", func(fl validator.FieldLevel) bool {
			return stepNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the
// config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}
