// Package xmlapi decodes PAN-OS XML API replies.
//
// Every reply is wrapped in a response envelope that carries the outcome as
// an attribute on the root element:
//
//	<response status="success">
//	  <result><key>LUFRPT1...</key></result>
//	</response>
//
// Specialized reply types embed [Response] so the envelope fields sit next
// to their own result fields. Decoding reads the raw body from a
// [TextSource], which is satisfied by the live HTTP response in the
// transport subpackage and by [StringSource] in tests.
//
// The package knows nothing about authentication. Every decode failure is
// reported as a [*ProtocolError].
//
// # Subpackages
//
//   - transport: HTTP/TLS transport layer
package xmlapi
