package ptyparse

import (
	"errors"
	"fmt"
)

// ErrDestroyed is returned by Write after Destroy.
var ErrDestroyed = errors.New("parser destroyed")

// ErrEmptyMatch is the cause of a ConfigError for a thinking tag pattern
// that matches the empty string.
var ErrEmptyMatch = errors.New("pattern matches the empty string")

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Cause error
	Key   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Key, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
