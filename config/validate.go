package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints then the search credentials
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{
				Field:   strings.TrimPrefix(fe.Namespace(), "Config."),
				Message: fmt.Sprintf("failed %q rule, got %v", fe.Tag(), fe.Value()),
			}
		}
		return err
	}
	switch c.Search.Provider {
	case LinkupProvider:
		if c.Search.LinkupAPIKey == "" {
			return &ValidationError{Field: "LINKUP_API_KEY", Message: "is required by the linkup search provider"}
		}
	case SearxngProvider:
		if c.Search.SearxngBaseURL == "" {
			return &ValidationError{Field: "SEARXNG_BASE_URL", Message: "is required by the searxng search provider"}
		}
	}
	return nil
}
