package command

// duplicateCommandError signals a second registration under an existing name.
type duplicateCommandError struct{ name string }

func (e duplicateCommandError) Error() string { return "command already registered: " + e.name }

// IsDuplicateCommand reports whether err indicates a name collision at registration.
func IsDuplicateCommand(err error) bool {
	_, ok := err.(duplicateCommandError)
	return ok
}

// unknownCommandError signals a lookup for a name nobody registered.
type unknownCommandError struct{ name string }

func (e unknownCommandError) Error() string { return "unknown command: " + e.name }

// ErrUnknownCommand constructs an unknownCommandError (used by the runtime
// when resolving inbound request paths).
func ErrUnknownCommand(name string) error { return unknownCommandError{name: name} }

// IsUnknownCommand reports whether err indicates a missing command (return 404).
func IsUnknownCommand(err error) bool {
	_, ok := err.(unknownCommandError)
	return ok
}
