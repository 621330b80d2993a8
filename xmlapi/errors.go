package xmlapi

import (
	"errors"
	"fmt"
)

// ProtocolError is returned when a reply body cannot be decoded into the
// expected envelope shape.
type ProtocolError struct {
	// Reason is a short description of what was wrong with the reply.
	Reason string

	// Err is the underlying decoder error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xmlapi: protocol error: %s: %v", e.Reason, e.Err)
	}
	return "xmlapi: protocol error: " + e.Reason
}

// Unwrap returns the underlying decoder error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
