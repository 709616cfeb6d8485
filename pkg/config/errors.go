package config

import (
	"fmt"
)

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field       string
	Value       interface{}
	Reason      string
	Suggestions []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in field '%s': %s", e.Field, e.Reason)
}

func (e *ConfigError) WithSuggestion(suggestion string) *ConfigError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

func NewConfigMissingError(field string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Reason: fmt.Sprintf("required field '%s' is missing", field),
	}
}

func NewConfigValidationError(field string, value interface{}, reason string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// NewUnsupportedError reports a field whose option kind is not compiled into
// the running build.
func NewUnsupportedError(field string, value interface{}, profile string) *ConfigError {
	return NewConfigValidationError(field, value,
		fmt.Sprintf("not supported by the %s SSL backend profile", profile)).
		WithSuggestion("Remove the field or rebuild with a profile that supports it").
		WithSuggestion("Run 'sslopts capabilities' to list the supported options")
}
