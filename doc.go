// Package panos provides a client for the PAN-OS XML API of Palo Alto
// Networks firewalls and Panorama.
//
// This module covers session establishment: exchanging a username and
// password for an API key with the keygen request, and modelling the XML
// reply envelope that every XML API call returns.
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  client/            Session builder and Connection      │
//	├─────────────────────────────────────────────────────────┤
//	│  xmlapi/            Reply envelope model and decoding   │
//	├─────────────────────────────────────────────────────────┤
//	│  xmlapi/transport/  HTTP/HTTPS, TLS and proxy handling  │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	conn, err := client.NewBuilder("admin", "password", "https://192.0.2.1").
//	    WithProxy("http://proxy.example.com:3128").
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(conn.APIKey())
//
// Failures are reported as one of four kinds: *client.ConfigError before
// any request is sent, *client.TransportError when the device cannot be
// reached, *xmlapi.ProtocolError when the reply is not a usable envelope,
// and *client.AuthenticationError when the device rejects the credentials.
//
// The panos-keygen command in cmd/ wraps the builder for shell use.
package panos
