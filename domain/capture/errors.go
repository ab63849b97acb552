package capture

import "errors"

var (
	// ErrDisposed reports an operation on a closed session.
	ErrDisposed = errors.New("capture: session disposed")
	// ErrInvalidState reports Start on a session that is already running.
	ErrInvalidState = errors.New("capture: session already running")
	// ErrNoFrame is returned by Duplicator.AcquireFrame when no new frame
	// arrived within the timeout. The worker retries silently; this error
	// never reaches callers.
	ErrNoFrame = errors.New("capture: no new frame within timeout")
	// ErrDeviceNotFound reports adapter/output indices the backend cannot
	// resolve to a display output.
	ErrDeviceNotFound = errors.New("capture: adapter or output not found")
	// ErrSubscriberNotFound reports an unsubscribe with an unknown token.
	ErrSubscriberNotFound = errors.New("capture: subscriber not found")
)
