package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidService is a configuration error in the service map.
	ErrInvalidService = errors.New("invalid service configuration")

	// ErrUnknownService is returned for names missing from the map.
	ErrUnknownService = errors.New("unknown service")

	// ErrMissingClass is returned when a mapped class has no constructor.
	ErrMissingClass = errors.New("missing service class")

	// ErrNotBound is returned when the service key has no container binding.
	ErrNotBound = errors.New("service not bound")

	// ErrWrongType is returned when a binding resolves to a value that is
	// not the expected service type.
	ErrWrongType = errors.New("wrong service type")

	// ErrResolveFailed is returned when the container fails to build the
	// service.
	ErrResolveFailed = errors.New("service resolution failed")

	// ErrArgumentsNotAccepted is returned by Hub.Call when arguments are
	// supplied in debug mode.
	ErrArgumentsNotAccepted = errors.New("arguments not accepted")
)

// ResolutionError explains why a service name could not be resolved.
type ResolutionError struct {
	Kind      error
	Name      string
	Key       string
	Class     Class
	Want      string
	Given     string
	Available []string
	Cause     error
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case ErrUnknownService:
		if len(e.Available) == 0 {
			return fmt.Sprintf("Unknown WP service [%s]. No services are registered.", e.Name)
		}
		return fmt.Sprintf("Unknown WP service [%s]. Available: [%s]", e.Name, strings.Join(e.Available, ", "))
	case ErrMissingClass:
		return fmt.Sprintf("Configured WP service [%s] points to missing class [%s].", e.Name, e.Class)
	case ErrNotBound:
		return fmt.Sprintf("WP service [%s] is not bound in the container under key [%s].", e.Name, e.Key)
	case ErrWrongType:
		return fmt.Sprintf("WP service [%s] must implement %s. Got: %s.", e.Name, e.Want, e.Given)
	case ErrArgumentsNotAccepted:
		return fmt.Sprintf("Dynamic call [%s] does not accept arguments. First resolve the service, then call its methods.", e.Name)
	case ErrResolveFailed:
		return fmt.Sprintf("WP service [%s] could not be resolved from key [%s]: %v", e.Name, e.Key, e.Cause)
	}
	return fmt.Sprintf("WP service [%s]: %v", e.Name, e.Kind)
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *ResolutionError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
