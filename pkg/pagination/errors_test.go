package pagination

import (
	"errors"
	"testing"
)

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{
			name:     "with field",
			err:      &ConfigError{Field: "fetch", Message: "should be a function"},
			expected: "invalid list configuration: fetch should be a function",
		},
		{
			name:     "without field",
			err:      &ConfigError{Message: "at least one list is required"},
			expected: "invalid list configuration: at least one list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConfigError_Is(t *testing.T) {
	err := error(&ConfigError{Field: "name", Message: "was invalid"})

	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("errors.Is should match ErrInvalidConfig")
	}
	if errors.Is(err, ErrFetchResultInvalid) {
		t.Error("errors.Is should not match ErrFetchResultInvalid")
	}
}
