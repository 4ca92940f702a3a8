package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that
// cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The selected backend must have a matching configuration section.
	if cfg.Metadata.Type == "badger" && cfg.Metadata.Badger == nil {
		return fmt.Errorf("metadata: type is badger but the badger section is missing")
	}
	if cfg.Content.Type == "filesystem" && cfg.Content.Filesystem == nil {
		return fmt.Errorf("content: type is filesystem but the filesystem section is missing")
	}
	if cfg.Content.Type == "s3" && cfg.Content.S3 == nil {
		return fmt.Errorf("content: type is s3 but the s3 section is missing")
	}
	if cfg.Sessions.Type == "badger" && cfg.Sessions.Badger == nil {
		return fmt.Errorf("sessions: type is badger but the badger section is missing")
	}
	if cfg.Queue.Type == "badger" && cfg.Queue.Badger == nil {
		return fmt.Errorf("queue: type is badger but the badger section is missing")
	}

	// A lease shorter than the poll interval would redeliver jobs to
	// consumers that are still working on them.
	if cfg.Queue.LeaseDuration <= cfg.Queue.PollInterval {
		return fmt.Errorf("queue: lease_duration (%s) must be longer than poll_interval (%s)",
			cfg.Queue.LeaseDuration, cfg.Queue.PollInterval)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
