package config

import "errors"

// Error kinds returned by Load and Validate; match them with errors.Is.
var (
	// ErrInvalidConfig marks a configuration that decoded but failed validation.
	ErrInvalidConfig = errors.New("invalid opsboard config")
	// ErrLoadConfig marks a failure reading the config file or environment.
	ErrLoadConfig = errors.New("load opsboard config")
)
