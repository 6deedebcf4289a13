package engine

import "errors"

var (
	// ErrSessionNotFound is returned for unknown session IDs and for
	// sessions owned by a different user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionTerminated is returned for operations on a session that
	// has already been finalized.
	ErrSessionTerminated = errors.New("session already terminated")
)

// ConfigurationError means the activity's configuration cannot support a
// session (malformed reward schedule, non-positive required time, inactive
// activity, competition outside its window). The session never starts.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }
