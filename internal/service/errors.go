package service

import (
	"errors"
	"fmt"
)

// Failure kinds a lookup can resolve to. Handlers never see a raw
// transport exception: every outbound failure maps onto one of these so
// the formatter can always render a reply.
var (
	ErrMissingArgument   = errors.New("missing argument")
	ErrInvalidFormat     = errors.New("invalid format")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// UpstreamStatusError reports a non-200 reply from a lookup endpoint.
type UpstreamStatusError struct {
	Status int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Status)
}

// TransportError wraps a network failure that is neither a timeout nor
// an HTTP-status error.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
