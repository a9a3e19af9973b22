package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against its struct tags and the
// cross-field rules that tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		probe := sl.Current().Interface().(ProbeConfig)
		if probe.Deadline <= probe.MaxTime {
			sl.ReportError(probe.Deadline, "Deadline", "deadline", "gtfield", "MaxTime")
		}
	}, ProbeConfig{})

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("config validation error: %w", err)
	}
	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "gtfield":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", e.Namespace(), e.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s], got %q", e.Namespace(), e.Param(), e.Value()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed on '%s' (value: %v)", e.Namespace(), e.Tag(), e.Value()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
