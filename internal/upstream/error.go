// Package upstream defines the error taxonomy shared by the upstream
// API clients. Both kinds are absorbed at the gateway boundary and
// converted to fallback data; they are never surfaced to HTTP callers.
package upstream

import "fmt"

// Kind classifies an upstream failure.
type Kind int

const (
	// KindUnavailable covers network failures and non-2xx statuses.
	KindUnavailable Kind = iota
	// KindMalformed covers JSON decode failures and payloads missing
	// expected fields.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error describes a failed upstream call.
type Error struct {
	Kind     Kind
	Upstream string
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf(
		"%s %s: upstream %s: %v",
		e.Upstream, e.Endpoint, e.Kind, e.Err,
	)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as an UpstreamUnavailable error.
func Unavailable(upstreamName, endpoint string, err error) *Error {
	return &Error{
		Kind:     KindUnavailable,
		Upstream: upstreamName,
		Endpoint: endpoint,
		Err:      err,
	}
}

// Malformed wraps err as an UpstreamMalformed error.
func Malformed(upstreamName, endpoint string, err error) *Error {
	return &Error{
		Kind:     KindMalformed,
		Upstream: upstreamName,
		Endpoint: endpoint,
		Err:      err,
	}
}
