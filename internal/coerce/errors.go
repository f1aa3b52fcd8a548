package coerce

// invalidInputError signals a wire value that is absent, malformed, or outside
// the declared type's accepted encoding. Client fault, maps to 400.
type invalidInputError struct {
	field string
	msg   string
}

func (e invalidInputError) Error() string { return "field " + quote(e.field) + ": " + e.msg }

// ErrInvalidInput constructs an invalidInputError for the given field.
func ErrInvalidInput(field, msg string) error { return invalidInputError{field: field, msg: msg} }

// IsInvalidInput reports whether err indicates a bad wire value (return 400).
func IsInvalidInput(err error) bool {
	_, ok := err.(invalidInputError)
	return ok
}

// serializationError signals a handler-produced domain value that cannot be
// represented in the declared output type. Server fault, maps to 500 and
// should be logged as a model bug.
type serializationError struct {
	field string
	msg   string
}

func (e serializationError) Error() string { return "field " + quote(e.field) + ": " + e.msg }

// ErrSerialization constructs a serializationError for the given field.
func ErrSerialization(field, msg string) error { return serializationError{field: field, msg: msg} }

// IsSerialization reports whether err indicates an unrepresentable output value.
func IsSerialization(err error) bool {
	_, ok := err.(serializationError)
	return ok
}

func quote(s string) string { return "\"" + s + "\"" }
