package client

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	plog "github.com/smnsjas/go-panos/internal/log"
	"github.com/smnsjas/go-panos/xmlapi"
	"github.com/smnsjas/go-panos/xmlapi/transport"
)

// Builder collects credentials and transport settings and performs the
// keygen handshake that yields a Connection.
//
// Configuration methods only record values and can be called in any order.
// Build must come last; it consumes the Builder.
// A Builder is not safe for concurrent use.
type Builder struct {
	username string
	password string
	baseURL  string

	proxy              string
	acceptInvalidCerts bool
	timeout            time.Duration
	logger             *slog.Logger
	transportOpts      []transport.HTTPTransportOption

	consumed bool
}

// NewBuilder creates a Builder for the device at baseURL, which must include
// the scheme (e.g., "https://192.0.2.1"). TLS certificates are verified and
// the proxy is taken from the environment. Inputs are validated by Build.
func NewBuilder(username, password, baseURL string) *Builder {
	return &Builder{
		username: username,
		password: password,
		baseURL:  baseURL,
		timeout:  transport.DefaultTimeout,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// WithProxy sets the outbound proxy: a proxy URL such as
// "http://proxy:3128", transport.ProxyDirect to bypass any proxy, or ""
// to use HTTP_PROXY/HTTPS_PROXY from the environment.
func (b *Builder) WithProxy(proxy string) *Builder {
	b.proxy = proxy
	return b
}

// Proxy returns the configured proxy.
func (b *Builder) Proxy() string {
	return b.proxy
}

// AcceptInvalidCertificates disables TLS certificate verification.
//
// WARNING: this disables verification of the device identity, so anyone on
// the network path can impersonate the device and capture the credentials.
// Only use it against lab devices with self-signed certificates.
func (b *Builder) AcceptInvalidCertificates() *Builder {
	b.acceptInvalidCerts = true
	return b
}

// AcceptsInvalidCertificates reports whether certificate verification is disabled.
func (b *Builder) AcceptsInvalidCertificates() bool {
	return b.acceptInvalidCerts
}

// WithTimeout sets the HTTP timeout for the handshake.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

// WithLogger sets the logger for security events and transport diagnostics.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithTransportOptions appends options applied to the HTTP transport after
// the Builder's own settings, so they take precedence. Use it to supply a
// custom round tripper or TLS configuration.
func (b *Builder) WithTransportOptions(opts ...transport.HTTPTransportOption) *Builder {
	b.transportOpts = append(b.transportOpts, opts...)
	return b
}

// Consumed reports whether Build has been called.
func (b *Builder) Consumed() bool {
	return b.consumed
}

// Validate checks the Builder inputs without performing any I/O.
func (b *Builder) Validate() error {
	if b.username == "" {
		return &ConfigError{Field: "username", Reason: "is required"}
	}
	if b.password == "" {
		return &ConfigError{Field: "password", Reason: "is required"}
	}
	if b.baseURL == "" {
		return &ConfigError{Field: "url", Reason: "is required"}
	}

	u, err := url.Parse(b.baseURL)
	if err != nil {
		return &ConfigError{Field: "url", Reason: "is not a valid URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "url", Reason: "must include an http or https scheme"}
	}
	if u.Host == "" {
		return &ConfigError{Field: "url", Reason: "has no host"}
	}
	if u.User != nil {
		return &ConfigError{Field: "url", Reason: "must not contain credentials"}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return &ConfigError{Field: "url", Reason: "must not contain a query or fragment"}
	}

	if b.proxy != "" && b.proxy != transport.ProxyDirect {
		if _, err := transport.ParseProxy(b.proxy); err != nil {
			return &ConfigError{Field: "proxy", Err: err}
		}
	}
	if b.timeout < 0 {
		return &ConfigError{Field: "timeout", Reason: "must not be negative"}
	}
	return nil
}

// base returns the validated base URL without a trailing slash.
func (b *Builder) base() string {
	return strings.TrimRight(b.baseURL, "/")
}

// keygenURL composes {base}/api?user=..&password=..&type=keygen.
func (b *Builder) keygenURL() string {
	q := xmlapi.RequestTypeKeygen.Values()
	q.Set("user", b.username)
	q.Set("password", b.password)
	return b.base() + xmlapi.PathAPI + "?" + q.Encode()
}

// Build performs the keygen handshake and returns the authenticated
// Connection.
//
// Build blocks for the full round trip; ctx bounds it. It consumes the
// Builder whether or not it succeeds, and the password is discarded once
// the request has been sent. Failures are returned as *ConfigError,
// *TransportError, *xmlapi.ProtocolError or *AuthenticationError. Nothing is
// retried.
func (b *Builder) Build(ctx context.Context) (*Connection, error) {
	if b.consumed {
		return nil, &ConfigError{Field: "builder", Err: ErrBuilderConsumed}
	}
	b.consumed = true
	defer func() { b.password = "" }()

	if err := b.Validate(); err != nil {
		return nil, err
	}

	opts := append([]transport.HTTPTransportOption{
		transport.WithTimeout(b.timeout),
		transport.WithInsecureSkipVerify(b.acceptInvalidCerts),
		transport.WithProxy(b.proxy),
		transport.WithLogger(b.logger),
	}, b.transportOpts...)
	tr := transport.NewHTTPTransport(opts...)

	sec := NewSecurityLogger(b.logger, b.username, b.base())
	sec.LogAuthentication(SubtypeAuthAttempt, OutcomeAttempt, SeverityInfo, nil)

	resp, err := tr.Get(ctx, b.keygenURL())
	if err != nil {
		sec.LogConnection(SubtypeConnFailed, OutcomeFailure, SeverityError,
			map[string]any{"error": err.Error()})
		return nil, &TransportError{Op: "keygen", Err: err}
	}
	sec.LogConnection(SubtypeConnEstablished, OutcomeSuccess, SeverityInfo,
		map[string]any{"http_status": resp.StatusCode})

	reply, err := xmlapi.DecodeKeyGen(resp)
	if err != nil {
		switch {
		case !xmlapi.IsProtocolError(err):
			err = &TransportError{Op: "keygen", Err: err}
		case resp.StatusCode >= 400:
			// Not an API reply, typically a proxy or load balancer page.
			err = &xmlapi.ProtocolError{Reason: "non-API reply", Err: transport.NewStatusError(resp)}
		}
		sec.LogAuthentication(SubtypeAuthFailure, OutcomeFailure, SeverityError,
			map[string]any{"error": err.Error(), "http_status": resp.StatusCode})
		return nil, err
	}

	if !reply.Success() {
		authErr := &AuthenticationError{
			Status:     reply.Status,
			Code:       reply.Code,
			Message:    reply.Message,
			HTTPStatus: resp.StatusCode,
		}
		sec.LogAuthentication(SubtypeAuthFailure, OutcomeDenied, SeverityWarning,
			map[string]any{"code": reply.Code, "message": reply.Message, "http_status": resp.StatusCode})
		return nil, authErr
	}

	sec.LogAuthentication(SubtypeAuthSuccess, OutcomeSuccess, SeverityInfo, nil)
	return NewConnection(b.base(), reply.Result.Key, tr), nil
}

// LogValue implements slog.LogValuer. The password is never included.
func (b *Builder) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", plog.RedactURL(b.baseURL)),
		slog.String("username", b.username),
		slog.String("password", plog.Redacted),
		slog.String("proxy", plog.RedactURL(b.proxy)),
		slog.Bool("accept_invalid_certificates", b.acceptInvalidCerts),
		slog.Bool("consumed", b.consumed),
	)
}
