package httpclient

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"
)

// MockTransport is a configurable http.RoundTripper for testing. It stubs
// responses, records requests, and can simulate network latency so that
// event durations are observable.
type MockTransport struct {
	mu       sync.RWMutex
	stubs    []mockStub
	latency  time.Duration
	requests []*http.Request
}

type mockStub struct {
	matcher func(*http.Request) bool
	status  int
	body    string
	header  http.Header
	err     error
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse makes every request return the given status and body.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	return m.StubFunc(func(*http.Request) bool { return true }, statusCode, body)
}

// StubError makes every request fail with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{
		matcher: func(*http.Request) bool { return true },
		err:     err,
	})
	return m
}

// StubFunc makes requests matching the predicate return the given response.
// Stubs are checked in order; the first match wins.
func (m *MockTransport) StubFunc(matcher func(*http.Request) bool, statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{
		matcher: matcher,
		status:  statusCode,
		body:    body,
		header:  make(http.Header),
	})
	return m
}

// WithLatency makes every round trip sleep before responding.
func (m *MockTransport) WithLatency(d time.Duration) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	latency := m.latency
	stubs := m.stubs
	m.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}

	for _, s := range stubs {
		if !s.matcher(req) {
			continue
		}
		if s.err != nil {
			return nil, s.err
		}
		return &http.Response{
			StatusCode: s.status,
			Status:     http.StatusText(s.status),
			Header:     s.header.Clone(),
			Body:       io.NopCloser(bytes.NewBufferString(s.body)),
			Request:    req,
		}, nil
	}

	return nil, errors.New("httpclient: no stub for " + req.Method + " " + req.URL.String())
}

// Requests returns a copy of all requests seen by the transport.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*http.Request{}, m.requests...)
}

// RequestCount returns the number of requests made.
func (m *MockTransport) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}
