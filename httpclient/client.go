package httpclient

import (
	"context"
	"io"
	"net/http"

	"github.com/beacon-labs/beacon-go/telemetry"
)

// Client is an http.Client wrapper with telemetry lifecycle hooks installed.
//
// Create a Client with New():
//
//	client, err := httpclient.New(
//	    httpclient.WithBus(bus),
//	    httpclient.WithTelemetry(true),
//	)
type Client struct {
	httpClient *http.Client
	config     *internalConfig
}

// New creates a Client with the full hook chain installed.
//
// The transport chain is, outermost first:
//
//	pipeline hook → interceptors → adapter hook → network transport
//
// The wrapping order is the ordering contract: pipeline.start fires before
// adapter.start, and adapter.stop/error fires before pipeline.stop/error.
//
// New fails when the attach-time telemetry options are invalid.
func New(opts ...Option) (*Client, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{
			Transport: buildChain(cfg.baseTransport(), cfg),
			Timeout:   cfg.httpConfig.Timeout,
		},
		config: cfg,
	}, nil
}

// NewTransport wraps base with the full hook chain and returns it as an
// http.RoundTripper, for use with a custom http.Client.
//
//	rt, err := httpclient.NewTransport(http.DefaultTransport,
//	    httpclient.WithBus(bus),
//	)
//	client := &http.Client{Transport: rt, Timeout: 30 * time.Second}
func NewTransport(base http.RoundTripper, opts ...Option) (http.RoundTripper, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return buildChain(base, cfg), nil
}

// WrapClient installs the hook chain around an existing http.Client's
// transport, modifying the client in place. A nil transport falls back to
// http.DefaultTransport.
func WrapClient(httpClient *http.Client, opts ...Option) (*Client, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = buildChain(base, cfg)

	return &Client{httpClient: httpClient, config: cfg}, nil
}

// buildChain assembles the hook chain around base. The install order is
// load-bearing: the adapter hook must sit directly on the network transport
// and the pipeline hook must be outermost, or adapter timing would absorb
// interceptor overhead.
func buildChain(base http.RoundTripper, cfg *internalConfig) http.RoundTripper {
	emitter := telemetry.NewEmitter(cfg.bus)

	var rt http.RoundTripper = newAdapterTransport(base, cfg, emitter)
	rt = newInterceptorTransport(rt, cfg.interceptors)
	return newPipelineTransport(rt, cfg, emitter)
}

// HTTP returns the underlying *http.Client for advanced use cases, such as
// passing it to libraries that expect one.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// Bus returns the bus this client's events are published to. Useful when
// the client created its own bus (no WithBus option) and subscribers need
// to attach after the fact.
func (c *Client) Bus() *telemetry.Bus {
	return c.config.bus
}

// Do sends the request through the instrumented chain.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Get issues a GET to url. Per-call telemetry overrides attached to ctx with
// WithCallOptions apply to this request only.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// Post issues a POST to url with the given content type and body.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.httpClient.Do(req)
}
