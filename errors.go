package main

import (
	"errors"
	"fmt"
)

// ErrNoRemoteEndpoint is returned when a remote estimate is requested but
// no remote scorer URL has been registered. It fails that call only.
var ErrNoRemoteEndpoint = errors.New("remote scoring requested but no endpoint registered")

// RemoteServiceError wraps a transport or service failure from the remote
// scorer. The pending estimate is rejected with it; there is no automatic
// fallback to the local estimator once a remote call has been dispatched.
type RemoteServiceError struct {
	URL string
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("remote scorer %s: %v", e.URL, e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// MalformedInputError reports a board/rule-set dimension mismatch at
// construction time.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}
