package bridge

import "errors"

var (
	// ErrTimeout is returned by Request when the timeout elapses before the
	// executor completes the request.
	ErrTimeout = errors.New("bridge: request timed out")

	// ErrCancelled is returned by Request and PollNext when the caller's
	// context is cancelled before an outcome arrives.
	ErrCancelled = errors.New("bridge: request cancelled")

	// ErrBacklogFull is returned by Request when no executor is available
	// and the backlog has reached its configured limit.
	ErrBacklogFull = errors.New("bridge: backlog full")
)
