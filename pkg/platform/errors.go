package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform indicates a platform with no architecture mapping
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrGeneratorMismatch indicates a generator whose embedded architecture
	// contradicts the target platform
	ErrGeneratorMismatch = errors.New("generator architecture does not match platform")
)

// ConfigurationError reports host facts the resolver cannot turn into flags.
type ConfigurationError struct {
	Platform  string
	Generator string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Generator != "" {
		return fmt.Sprintf("platform %q with generator %q: %v", e.Platform, e.Generator, e.Err)
	}
	return fmt.Sprintf("platform %q: %v", e.Platform, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
