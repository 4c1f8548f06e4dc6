package schema

import "fmt"

// ConfigurationError indicates missing or invalid target parameters, or a
// dataset that does not match the registry's declared shape. It is fatal:
// the pipeline aborts before any artifact is written.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}

	return fmt.Sprintf("configuration error for %s: %s", e.Key, e.Reason)
}
