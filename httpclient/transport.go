package httpclient

import (
	"net/http"

	"github.com/beacon-labs/beacon-go/telemetry"
)

// Compile-time interface checks.
var (
	_ http.RoundTripper = (*pipelineTransport)(nil)
	_ http.RoundTripper = (*adapterTransport)(nil)
)

// pipelineTransport is the outermost hook. It resolves the effective
// telemetry settings for the invocation, seeds the invocation into the
// request context, and emits the pipeline start/stop/error events around
// everything below it.
type pipelineTransport struct {
	base    http.RoundTripper
	cfg     *internalConfig
	emitter *telemetry.Emitter
}

func newPipelineTransport(base http.RoundTripper, cfg *internalConfig, emitter *telemetry.Emitter) *pipelineTransport {
	return &pipelineTransport{base: base, cfg: cfg, emitter: emitter}
}

// RoundTrip implements http.RoundTripper.
func (t *pipelineTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	inv, ok := invocationFrom(req.Context())
	if !ok {
		inv = t.cfg.resolveInvocation(req)
		req = req.WithContext(withInvocation(req.Context(), inv))
	}

	info := requestInfo(req)
	t.emitter.PhaseStart(inv, telemetry.PhasePipeline, info)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.emitter.PhaseError(inv, telemetry.PhasePipeline, info, err)
		return nil, err
	}

	t.emitter.PhaseStop(inv, telemetry.PhasePipeline, info, responseInfo(resp))
	return resp, nil
}

// adapterTransport is the innermost hook, wrapping the network transport
// directly so its timing excludes interceptor overhead. It emits the adapter
// start/stop/error events.
type adapterTransport struct {
	base    http.RoundTripper
	cfg     *internalConfig
	emitter *telemetry.Emitter
}

func newAdapterTransport(base http.RoundTripper, cfg *internalConfig, emitter *telemetry.Emitter) *adapterTransport {
	return &adapterTransport{base: base, cfg: cfg, emitter: emitter}
}

// RoundTrip implements http.RoundTripper.
func (t *adapterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	inv, ok := invocationFrom(req.Context())
	if !ok {
		// First hook to run: the adapter transport is being used without
		// the pipeline wrapper. Resolve settings here instead.
		inv = t.cfg.resolveInvocation(req)
		req = req.WithContext(withInvocation(req.Context(), inv))
	}

	info := requestInfo(req)
	t.emitter.PhaseStart(inv, telemetry.PhaseAdapter, info)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.emitter.PhaseError(inv, telemetry.PhaseAdapter, info, err)
		return nil, err
	}

	t.emitter.PhaseStop(inv, telemetry.PhaseAdapter, info, responseInfo(resp))
	return resp, nil
}

// resolveInvocation creates the invocation state for one request, resolving
// the effective settings exactly once: attach-time settings merged with any
// per-call override found in the request context. The result is cached in
// the invocation so every hook of this request applies one consistent
// policy.
//
// An invalid per-call override is non-fatal: it is logged as a warning
// naming the offending value, and the invocation runs with all events
// suppressed rather than failing a live request.
func (cfg *internalConfig) resolveInvocation(req *http.Request) *telemetry.Invocation {
	effective := cfg.settings

	if v, ok := callOptionsFrom(req.Context()); ok {
		s, err := telemetry.Resolve(cfg.settings, v)
		if err != nil {
			cfg.logger.Warn().
				Interface("options", v).
				Str("url", req.URL.String()).
				Msg("httpclient: invalid per-call telemetry options, suppressing events for this request")
			effective = telemetry.Settings{}
		} else {
			effective = s
		}
	}

	return telemetry.NewInvocation(effective)
}

func requestInfo(req *http.Request) telemetry.RequestInfo {
	return telemetry.RequestInfo{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: req.Header,
	}
}

func responseInfo(resp *http.Response) telemetry.ResponseInfo {
	return telemetry.ResponseInfo{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}
}
