package client

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/smnsjas/go-panos/xmlapi"
)

// ErrBuilderConsumed is wrapped by the ConfigError returned when Build is
// called on a Builder that has already performed a handshake.
var ErrBuilderConsumed = errors.New("builder already consumed by Build")

// ConfigError reports invalid or missing Builder input. It is returned
// before any network activity.
type ConfigError struct {
	// Field names the offending setting (e.g., "username", "url", "proxy").
	Field string

	// Reason describes what is wrong with it.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	parts := []string{"client: invalid configuration"}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError reports a failure to reach the device or to obtain a
// readable reply from it: DNS, TLS, proxy, timeouts and refused connections.
// A reply that arrives but is not an API envelope is an *xmlapi.ProtocolError.
type TransportError struct {
	// Op is the API operation being performed (e.g., "keygen").
	Op string

	// Err is the underlying transport error. It never carries credentials.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout returns true if the failure was a timeout.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// AuthenticationError reports a well-formed reply whose status is not
// success, meaning the device rejected the credentials.
type AuthenticationError struct {
	// Status is the envelope status.
	Status xmlapi.Status

	// Code is the device error code, zero if none was sent.
	Code int

	// Message is the device diagnostic text, empty if none was sent.
	Message string

	// HTTPStatus is the HTTP status code of the reply.
	HTTPStatus int
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("client: authentication failed: status=%s", e.Status)
	if e.Code != 0 {
		msg += fmt.Sprintf(" code=%d", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IsConfigError returns true if err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTransportError returns true if err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsAuthenticationError returns true if err is or wraps an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}
