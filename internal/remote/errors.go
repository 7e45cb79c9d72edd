package remote

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrNetwork matches any failure to complete an HTTP exchange with the relay
// (DNS, connect, TLS, timeout, cancellation, reading the body).
//
//	if errors.Is(err, remote.ErrNetwork) {
//	    // relay unreachable
//	}
var ErrNetwork = errors.New("remote: network error")

// ErrInvalidBaseURL is returned by New when the configured base URL cannot be used.
var ErrInvalidBaseURL = errors.New("remote: invalid base url")

// NetworkError describes a failed relay exchange.
// URL has any key query parameter redacted.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the transport error, so context errors stay matchable.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports ErrNetwork as a match.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// redactedValue replaces secrets in logged or reported URLs.
const redactedValue = "REDACTED"

// redactURL renders u with the key query parameter hidden.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	if !q.Has("key") {
		return u.String()
	}
	q.Set("key", redactedValue)
	cp := *u
	cp.RawQuery = q.Encode()
	return cp.String()
}
