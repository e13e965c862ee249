package registry

import "errors"

var (
	// ErrNoHealthyNodes is returned by ResolveBaseURL when no passing
	// instance matches.
	ErrNoHealthyNodes = errors.New("registry: no healthy nodes")

	// ErrInvalidBaseURL is returned when an instance address does not form
	// an absolute URL.
	ErrInvalidBaseURL = errors.New("registry: invalid base url")

	// ErrMissingServiceName is returned when a registration has no name.
	ErrMissingServiceName = errors.New("registry: service name is required")
)
