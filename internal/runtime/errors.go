package runtime

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ command string }

func (e tooBusyError) Error() string { return "too busy: " + e.command }

// ErrTooBusy constructs a tooBusyError for the named command.
func ErrTooBusy(command string) error { return tooBusyError{command: command} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}

// setupError is fatal: the process must not start accepting connections.
type setupError struct{ err error }

func (e setupError) Error() string { return "setup: " + e.err.Error() }
func (e setupError) Unwrap() error { return e.err }

// IsSetup reports whether err came from the one-time setup phase.
func IsSetup(err error) bool {
	_, ok := err.(setupError)
	return ok
}

// handlerError wraps an unclassified failure (error return or panic) from a
// command handler. Recoverable per-request; maps to 500.
type handlerError struct {
	command string
	err     error
}

func (e handlerError) Error() string { return "command " + e.command + ": " + e.err.Error() }
func (e handlerError) Unwrap() error { return e.err }

// ErrHandler wraps err as a caught handler failure for the named command.
func ErrHandler(command string, err error) error { return handlerError{command: command, err: err} }

// IsHandlerRuntime reports whether err is a caught handler failure.
func IsHandlerRuntime(err error) bool {
	_, ok := err.(handlerError)
	return ok
}

// notReadyError signals an invocation before setup completed (return 503).
type notReadyError struct{}

func (notReadyError) Error() string { return "model not ready" }

// ErrNotReady constructs a notReadyError.
func ErrNotReady() error { return notReadyError{} }

// IsNotReady reports whether err indicates the setup barrier has not passed.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}
