package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatch path. Callers classify with errors.Is /
// errors.As; none of these are retried by the core.
var (
	// ErrEndpointNotConfigured means no webhook URL could be resolved for a
	// tenant/category pair. Category-fatal for that event, never silent.
	ErrEndpointNotConfigured = errors.New("endpoint not configured")

	// ErrCancelled marks a dispatch aborted by context cancellation,
	// distinct from a network-level TransportError.
	ErrCancelled = errors.New("dispatch cancelled")
)

// DeliveryError is a completed HTTP exchange with a non-2xx status.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: status %d: %s", e.Status, e.Body)
}

// TransportError is a network-level dispatch failure (DNS, timeout,
// connection reset) where no HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigError is a missing or invalid required configuration value. It is
// the only error class allowed to halt process startup.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// PersistenceError wraps a failed state-file read or write. Recoverable:
// the owning component logs it and carries on with in-memory state.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
