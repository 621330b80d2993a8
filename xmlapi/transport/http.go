package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	plog "github.com/smnsjas/go-panos/internal/log"
)

const (
	// ContentTypeXML is the media type requested from the XML API.
	ContentTypeXML = "application/xml"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// ProxyDirect disables proxying, including proxies from the environment.
	ProxyDirect = "direct"

	// defaultBufferSize is the initial size for pooled buffers.
	defaultBufferSize = 32 * 1024 // 32KB

	// maxErrorBody bounds the body preview kept in a StatusError.
	maxErrorBody = 3000
)

// bufferPool is a pool of reusable bytes.Buffer to reduce allocations.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

// readAllPooled reads from r using a pooled buffer and returns a copy of the data.
func readAllPooled(r io.Reader) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	// Return a copy since buf will be reused
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// Response is a fully read HTTP response. It implements xmlapi.TextSource.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	body []byte
}

// Text returns the response body as a string.
func (r *Response) Text() (string, error) {
	return string(r.body), nil
}

// Bytes returns the raw response body.
func (r *Response) Bytes() []byte {
	return r.body
}

// StatusError reports a non-success HTTP status whose body was not a
// usable API reply.
type StatusError struct {
	StatusCode int
	Body       string
}

// NewStatusError builds a StatusError from resp, truncating the body.
func NewStatusError(resp *Response) *StatusError {
	preview := string(resp.body)
	if len(preview) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "..."
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: preview}
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transport: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("transport: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPTransport handles HTTP/HTTPS communication with the XML API.
type HTTPTransport struct {
	client   *http.Client
	logger   *slog.Logger
	proxyErr error
}

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// NewHTTPTransport creates a new HTTP transport with the given options.
func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(t)
	}

	if tr, ok := t.client.Transport.(*http.Transport); ok &&
		tr.TLSClientConfig != nil && tr.TLSClientConfig.InsecureSkipVerify {
		t.logger.Warn("TLS certificate verification disabled; the device identity is not verified")
	}

	return t
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.client.Timeout = d
	}
}

// WithLogger sets the logger used for request and security warnings.
func WithLogger(logger *slog.Logger) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithInsecureSkipVerify configures TLS to skip certificate verification.
// WARNING: this disables verification of the device identity. Only use it
// against lab devices with self-signed certificates.
func WithInsecureSkipVerify(skip bool) HTTPTransportOption {
	return func(t *HTTPTransport) {
		transport := t.ensureHTTPTransport()
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}
		transport.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// WithTLSConfig sets a custom TLS configuration.
// NOTE: MinVersion is enforced to be at least TLS 1.2.
func WithTLSConfig(cfg *tls.Config) HTTPTransportOption {
	return func(t *HTTPTransport) {
		transport := t.ensureHTTPTransport()
		if cfg.MinVersion < tls.VersionTLS12 {
			cfg.MinVersion = tls.VersionTLS12
		}
		transport.TLSClientConfig = cfg
	}
}

// WithRoundTripper replaces the underlying round tripper. TLS and proxy
// options applied after it reinstall an *http.Transport, so it must come
// last.
func WithRoundTripper(rt http.RoundTripper) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if rt != nil {
			t.client.Transport = rt
		}
	}
}

// WithProxy selects the outbound proxy.
//
// An empty string uses the proxy from the environment (HTTP_PROXY,
// HTTPS_PROXY, NO_PROXY). ProxyDirect connects without a proxy. Anything
// else is parsed with ParseProxy; an invalid value makes every request fail.
func WithProxy(proxy string) HTTPTransportOption {
	return func(t *HTTPTransport) {
		transport := t.ensureHTTPTransport()
		switch proxy {
		case "":
			transport.Proxy = http.ProxyFromEnvironment
		case ProxyDirect:
			transport.Proxy = nil
		default:
			u, err := ParseProxy(proxy)
			if err != nil {
				t.proxyErr = err
				return
			}
			transport.Proxy = http.ProxyURL(u)
		}
	}
}

// ParseProxy parses a proxy URL. A value without a scheme is treated as an
// HTTP proxy. Supported schemes are http, https, socks5 and socks5h.
func ParseProxy(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New("transport: invalid proxy URL")
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("transport: unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("transport: proxy URL has no host")
	}
	return u, nil
}

// ensureHTTPTransport ensures the client has an *http.Transport.
func (t *HTTPTransport) ensureHTTPTransport() *http.Transport {
	if t.client.Transport == nil {
		t.client.Transport = &http.Transport{}
	}
	transport, ok := t.client.Transport.(*http.Transport)
	if !ok {
		transport = &http.Transport{}
		t.client.Transport = transport
	}
	return transport
}

// Get issues a GET request and returns the fully read response.
//
// Non-success HTTP statuses are not errors: devices send error replies with
// 4xx statuses and the caller decides what the body means. Errors never
// contain credentials from the query string.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	if t.proxyErr != nil {
		return nil, t.proxyErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to create request: %w", redactError(err))
	}
	req.Header.Set("Accept", ContentTypeXML)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", redactError(err))
	}
	defer resp.Body.Close()

	body, err := readAllPooled(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to read response: %w", redactError(err))
	}

	t.logger.Debug("xml api request",
		"method", http.MethodGet,
		"url", plog.RedactURL(rawURL),
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, body: body}, nil
}

// Client returns the underlying HTTP client for advanced configuration.
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// CloseIdleConnections closes any idle connections in the transport.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// redactError strips credentials from the URL carried by *url.Error.
func redactError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: plog.RedactURL(uerr.URL), Err: uerr.Err}
}
