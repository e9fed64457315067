package acf

import "errors"

var (
	// ErrEnvironment is wrapped by every EnvironmentError.
	ErrEnvironment = errors.New("acf environment error")

	// ErrAlreadyLoaded is returned when the ACF class was loaded by
	// something other than this provider.
	ErrAlreadyLoaded = errors.New("ACF already loaded by another source")

	// ErrInvalidCore is returned when the entry file fails validation or
	// does not define the ACF class.
	ErrInvalidCore = errors.New("invalid ACF core")

	// ErrFieldGroup is returned for unreadable or invalid field group files.
	ErrFieldGroup = errors.New("invalid field group")

	// ErrUnsafeTarget is returned when the assets target is not a
	// dedicated directory strictly inside the public directory.
	ErrUnsafeTarget = errors.New("unsafe assets target")
)

// EnvironmentError reports a missing or unusable directory or asset. It
// is returned in production and logged as a warning elsewhere.
type EnvironmentError struct {
	Path string
	Msg  string
	Err  error
}

func (e *EnvironmentError) Error() string { return e.Msg }

// Unwrap exposes ErrEnvironment and the underlying cause.
func (e *EnvironmentError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEnvironment, e.Err}
	}
	return []error{ErrEnvironment}
}
