package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/beacon-labs/beacon-go/telemetry"
)

// defaultLogger is the package-level zerolog logger for warnings.
var defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Config holds the HTTP transport configuration parameters.
// Use DefaultConfig() to get a properly initialized configuration, then
// modify specific fields as needed.
type Config struct {
	// Timeout limits the entire request lifecycle, including connection
	// establishment, TLS handshake, and reading the response body.
	// Zero means no timeout.
	//
	// Default: 15s
	Timeout time.Duration

	// MaxIdleConns caps idle (keep-alive) connections across all hosts.
	//
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections kept per host. Often the
	// most important setting when most traffic goes to one downstream.
	//
	// Default: 20
	MaxIdleConnsPerHost int

	// MaxConnsPerHost limits total connections (idle + active) per host.
	// Zero means unlimited.
	//
	// Default: 100
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection stays pooled before
	// being closed.
	//
	// Default: 90s
	IdleConnTimeout time.Duration

	// TLSHandshakeTimeout is the maximum time to wait for a TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// DialTimeout is the maximum time to establish a TCP connection.
	//
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// DisableKeepAlives forces a new connection per request.
	//
	// Default: false
	DisableKeepAlives bool

	// DisableCompression disables the automatic "Accept-Encoding: gzip".
	//
	// Default: true (compression disabled)
	DisableCompression bool

	// ForceHTTP2 forces HTTP/2 (requires HTTPS).
	//
	// Default: false (negotiated via ALPN)
	ForceHTTP2 bool
}

// DefaultConfig returns a balanced configuration suitable for most use
// cases: moderate pooling and timeouts tuned for typical service-to-service
// traffic.
func DefaultConfig() Config {
	return Config{
		Timeout:             15 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		DisableKeepAlives:   false,
		DisableCompression:  true,
		ForceHTTP2:          false,
	}
}

// internalConfig holds the resolved client configuration.
type internalConfig struct {
	httpConfig Config

	// bus receives all published lifecycle events.
	bus *telemetry.Bus

	// settings are the attach-time telemetry settings, normalized once
	// in newConfig. Per-call overrides are resolved against them.
	settings telemetry.Settings

	// telemetryOpts is the raw attach-time telemetry input, kept until
	// newConfig normalizes it so that option application order does not
	// matter.
	telemetryOpts    any
	hasTelemetryOpts bool

	// logger receives warnings about invalid per-call options.
	logger zerolog.Logger

	// interceptors run between the pipeline and adapter hooks.
	interceptors *InterceptorChain

	// mock replaces the built transport in tests.
	mock *MockTransport
}

// newConfig applies options and normalizes the attach-time telemetry input.
// Invalid attach-time input is a programming mistake and fails here.
func newConfig(opts ...Option) (*internalConfig, error) {
	cfg := &internalConfig{
		httpConfig:   DefaultConfig(),
		logger:       defaultLogger,
		interceptors: NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.bus == nil {
		cfg.bus = telemetry.NewBus()
	}

	cfg.settings = telemetry.Defaults()
	if cfg.hasTelemetryOpts {
		s, err := telemetry.Normalize(cfg.telemetryOpts)
		if err != nil {
			return nil, fmt.Errorf("httpclient: %w", err)
		}
		cfg.settings = s
	}

	return cfg, nil
}

// buildTransport creates an http.Transport from the configuration.
func (cfg *internalConfig) buildTransport() *http.Transport {
	hc := cfg.httpConfig

	dialer := &net.Dialer{
		Timeout:   hc.DialTimeout,
		KeepAlive: hc.KeepAlive,
	}

	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        hc.MaxIdleConns,
		MaxIdleConnsPerHost: hc.MaxIdleConnsPerHost,
		MaxConnsPerHost:     hc.MaxConnsPerHost,
		IdleConnTimeout:     hc.IdleConnTimeout,
		TLSHandshakeTimeout: hc.TLSHandshakeTimeout,
		DisableKeepAlives:   hc.DisableKeepAlives,
		DisableCompression:  hc.DisableCompression,
		ForceAttemptHTTP2:   hc.ForceHTTP2,
	}
}

// baseTransport returns the innermost RoundTripper: the mock when set,
// otherwise a transport built from the configuration.
func (cfg *internalConfig) baseTransport() http.RoundTripper {
	if cfg.mock != nil {
		return cfg.mock
	}
	return cfg.buildTransport()
}

// Option configures the HTTP client.
type Option func(*internalConfig)

// WithConfig sets the HTTP transport configuration. Use DefaultConfig() as a
// starting point and customize as needed.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithBus sets the bus that lifecycle events are published to. Subscribers
// attached to the same bus observe this client's events.
//
// If not called, the client creates a private bus, reachable via
// Client.Bus().
func WithBus(bus *telemetry.Bus) Option {
	return func(cfg *internalConfig) {
		cfg.bus = bus
	}
}

// WithTelemetry sets the attach-time telemetry options.
//
// Accepted shapes match telemetry.Normalize: a bool, a map with the keys
// "pipeline", "adapter" and "metadata", or a telemetry.Settings value.
// Invalid input makes New fail; it indicates a programming mistake that
// should never reach production.
//
// Example - disable pipeline events, tag all events:
//
//	client, err := httpclient.New(
//	    httpclient.WithTelemetry(map[string]any{
//	        "pipeline": false,
//	        "metadata": map[string]any{"service": "billing"},
//	    }),
//	)
func WithTelemetry(v any) Option {
	return func(cfg *internalConfig) {
		cfg.telemetryOpts = v
		cfg.hasTelemetryOpts = true
	}
}

// WithLogger sets the logger used for per-call option warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.logger = logger
	}
}

// WithRequestInterceptor adds a request interceptor. Interceptors run inside
// the pipeline phase but outside the adapter phase, so their overhead is
// visible in pipeline timing and excluded from adapter timing.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.interceptors.AddRequestInterceptor(i)
	}
}

// WithResponseInterceptor adds a response interceptor.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.interceptors.AddResponseInterceptor(i)
	}
}

// WithMockTransport replaces the network transport for testing.
func WithMockTransport(mock *MockTransport) Option {
	return func(cfg *internalConfig) {
		cfg.mock = mock
	}
}
