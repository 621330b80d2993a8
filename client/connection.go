package client

import (
	"fmt"
	"log/slog"

	plog "github.com/smnsjas/go-panos/internal/log"
	"github.com/smnsjas/go-panos/xmlapi/transport"
)

// Connection is an authenticated session with a device: its base URL, the
// API key generated by the keygen handshake, and the transport that
// performed it. A Connection is immutable and may be shared between
// goroutines.
type Connection struct {
	baseURL   string
	apiKey    string
	transport *transport.HTTPTransport
}

// NewConnection wraps an existing API key. Use it when the key was obtained
// out of band or when the transport needs settings the Builder does not
// expose. Most callers should use Builder.Build instead.
func NewConnection(baseURL, apiKey string, tr *transport.HTTPTransport) *Connection {
	if tr == nil {
		tr = transport.NewHTTPTransport()
	}
	return &Connection{
		baseURL:   baseURL,
		apiKey:    apiKey,
		transport: tr,
	}
}

// URL returns the device base URL.
func (c *Connection) URL() string {
	return c.baseURL
}

// APIKey returns the API key used to authenticate subsequent requests.
func (c *Connection) APIKey() string {
	return c.apiKey
}

// Transport returns the transport configured for this device.
func (c *Connection) Transport() *transport.HTTPTransport {
	return c.transport
}

// String implements fmt.Stringer. The API key is redacted.
func (c *Connection) String() string {
	return fmt.Sprintf("Connection{url: %s, api_key: %s}", plog.RedactURL(c.baseURL), plog.Redacted)
}

// LogValue implements slog.LogValuer. The API key is redacted.
func (c *Connection) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", plog.RedactURL(c.baseURL)),
		slog.String("api_key", plog.Redacted),
	)
}
