package config

import "fmt"

// ConfigError reports a configuration document that is missing, unreadable
// or invalid. It is fatal: nothing gets scheduled.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
