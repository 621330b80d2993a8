package xmlapi

import "net/url"

// PathAPI is the XML API path appended to a device base URL.
const PathAPI = "/api"

// RequestType is the value of the "type" query parameter that selects an
// XML API operation.
type RequestType string

const (
	// RequestTypeKeygen requests an API key for the supplied credentials.
	RequestTypeKeygen RequestType = "keygen"
)

// Values returns the query parameters that select this request type.
func (t RequestType) Values() url.Values {
	return url.Values{"type": {string(t)}}
}
