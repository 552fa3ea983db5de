package pagination

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig matches every *ConfigError via errors.Is.
	ErrInvalidConfig = errors.New("invalid list configuration")

	// ErrFetchResultInvalid is returned when the fetch callback produced no value.
	ErrFetchResultInvalid = errors.New("fetch callback returned no result")
)

// ConfigError reports an invalid construction argument.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidConfig, e.Message)
	}
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidConfig) match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
