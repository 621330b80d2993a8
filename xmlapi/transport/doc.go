// Package transport provides HTTP/TLS transport for XML API requests.
//
// The transport layer handles:
//   - HTTP/HTTPS connections
//   - TLS configuration
//   - Outbound proxy selection
//   - Request/response handling
package transport
