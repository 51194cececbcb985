package keywell

import "fmt"

// ConfigError reports a configuration value that is outside its supported
// range or structurally malformed. It is always detected before any
// geometry work starts and is never recovered internally.
type ConfigError struct {
	// Field names the offending configuration field, using TOML path
	// notation (e.g. "finger_cluster.rows").
	Field string

	// Reason describes why the value was rejected.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// configErrorf builds a *ConfigError for the given field.
func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// MeshError reports a meshing request that cannot produce a valid mesh:
// a non-positive resolution or a degenerate bounding volume. It is
// reported before sampling starts and is never retried automatically.
type MeshError struct {
	Reason string
}

func (e *MeshError) Error() string {
	return "mesh: " + e.Reason
}
