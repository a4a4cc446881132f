package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateDocument(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateSelection(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateProcessing(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateDocument() ValidationErrors {
	var errors ValidationErrors

	if c.Document.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "document.path",
			Message: "path is required",
		})
	}

	if c.Document.Family == "" {
		errors = append(errors, ValidationError{
			Field:   "document.family",
			Message: "family is required",
		})
	}

	return errors
}

func (c *Config) validateSelection() ValidationErrors {
	var errors ValidationErrors

	validModes := map[string]bool{SelectionModeInteractive: true, SelectionModeScripted: true, "": true}
	if !validModes[c.Selection.Mode] {
		errors = append(errors, ValidationError{
			Field:   "selection.mode",
			Message: "mode must be 'interactive' or 'scripted'",
		})
	}

	if c.Selection.Scripted() && len(c.Selection.Purge) > 0 {
		if c.Selection.Replacement == "" {
			errors = append(errors, ValidationError{
				Field:   "selection.replacement",
				Message: "replacement is required when purge entries are configured",
			})
		}
		for _, entry := range c.Selection.Purge {
			if entry == c.Selection.Replacement {
				errors = append(errors, ValidationError{
					Field:   "selection.replacement",
					Message: fmt.Sprintf("replacement %q is also listed for purge", entry),
				})
			}
		}
	}

	return errors
}

func (c *Config) validateProcessing() ValidationErrors {
	var errors ValidationErrors

	if c.Processing.ProgressEvery < 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.progress_every",
			Message: "progress_every cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
