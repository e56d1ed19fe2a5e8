package layout

import "fmt"

// ConfigError is reported before packing starts when options cannot produce
// any layout.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid layout configuration, %s: %s", e.Field, e.Reason)
}

// ExhaustedError is returned together with a valid result when destination
// pages ran out before all images were placed. Caller decides whether to
// extend destination range.
type ExhaustedError struct {
	Unplaced int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("destination pages exhausted, %d image(s) left unplaced", e.Unplaced)
}
