package httpclient

import (
	"net/http"
)

// RequestInterceptor allows modification of requests before they are sent.
// Interceptors are executed in the order they are added, after the pipeline
// hook and before the adapter hook.
//
// Common use cases:
//   - Adding authentication headers (Bearer tokens, API keys)
//   - Injecting correlation IDs
//   - Adding custom headers based on request context
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor allows inspection of responses after receipt, before
// the pipeline stop event fires.
type ResponseInterceptor func(resp *http.Response, req *http.Request) error

// InterceptorChain manages request and response interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates an empty interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(i RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, i)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(i ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, i)
}

// interceptorTransport runs the chain between the pipeline and adapter
// hooks, so interceptor overhead counts toward pipeline timing but not
// adapter timing.
type interceptorTransport struct {
	base  http.RoundTripper
	chain *InterceptorChain
}

func newInterceptorTransport(base http.RoundTripper, chain *InterceptorChain) http.RoundTripper {
	if chain == nil || (len(chain.requestInterceptors) == 0 && len(chain.responseInterceptors) == 0) {
		return base
	}
	return &interceptorTransport{base: base, chain: chain}
}

// RoundTrip implements http.RoundTripper.
func (t *interceptorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, interceptor := range t.chain.requestInterceptors {
		if err := interceptor(req); err != nil {
			return nil, err
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	for _, interceptor := range t.chain.responseInterceptors {
		if err := interceptor(resp, req); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// AuthBearerInterceptor creates an interceptor that adds a Bearer token.
func AuthBearerInterceptor(token string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// APIKeyInterceptor creates an interceptor that adds an API key header.
func APIKeyInterceptor(headerName, apiKey string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set(headerName, apiKey)
		return nil
	}
}

// UserAgentInterceptor creates an interceptor that sets the User-Agent header.
func UserAgentInterceptor(userAgent string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", userAgent)
		return nil
	}
}
