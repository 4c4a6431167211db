package kb

import "fmt"

// ConfigError reports invalid or missing rule configuration. It is fatal:
// a simulation run must not start after receiving one.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("kb: bad configuration %q: %s", e.Field, e.Reason)
}
