package insight

import "errors"

var (
	ErrUnknownScope  = errors.New("insight: unknown scope")
	ErrEmptyQuestion = errors.New("insight: empty question")
	ErrNoAnswer      = errors.New("insight: empty completion")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("insight: provider unavailable")
)
