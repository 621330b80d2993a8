// Package client authenticates against a PAN-OS device and produces a
// Connection holding the generated API key.
//
// This is the entry point for most users. It handles:
//   - Credential and transport configuration through a Builder
//   - The keygen handshake
//   - Classifying failures into configuration, transport, protocol and
//     authentication errors
//
// # Quick Start
//
//	conn, err := client.NewBuilder("admin", password, "https://192.0.2.1").
//	    Build(ctx)
//	if err != nil {
//	    var authErr *client.AuthenticationError
//	    if errors.As(err, &authErr) {
//	        log.Fatalf("credentials rejected: %s", authErr.Message)
//	    }
//	    log.Fatal(err)
//	}
//	key := conn.APIKey()
//
// A Builder performs one handshake. Build consumes it even when the
// handshake fails; construct a new Builder to try again.
package client
