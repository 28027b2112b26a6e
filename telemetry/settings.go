package telemetry

import "fmt"

// Settings is the canonical telemetry configuration for a client or a single
// invocation. The zero value disables both phases.
type Settings struct {
	// Pipeline enables events for the full request span.
	Pipeline bool

	// Adapter enables events for the inner network call span.
	Adapter bool

	// Metadata is attached to every event emitted under these settings.
	Metadata map[string]any
}

// enabled reports whether events for the given phase should be emitted.
func (s Settings) enabled(phase Phase) bool {
	switch phase {
	case PhasePipeline:
		return s.Pipeline
	case PhaseAdapter:
		return s.Adapter
	}
	return false
}

// Defaults returns the attach-time defaults: both phases enabled, no
// metadata.
func Defaults() Settings {
	return Settings{Pipeline: true, Adapter: true, Metadata: map[string]any{}}
}

// InvalidOptionsError reports telemetry options that could not be
// normalized. It carries the offending value for diagnostic display.
type InvalidOptionsError struct {
	// Value is the input that was rejected.
	Value any

	reason string
}

func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("telemetry: invalid options (%s): %+v", e.reason, e.Value)
}

// settingsKeys is the closed key set accepted by the map input shape.
var settingsKeys = map[string]struct{}{
	"pipeline": {},
	"adapter":  {},
	"metadata": {},
}

// Normalize validates v and converts it into canonical Settings.
//
// Accepted shapes, one normalization path per variant:
//
//   - bool: true enables both phases with empty metadata, false disables both
//   - map[string]any: the keys "pipeline" and "adapter" (bool) and
//     "metadata" (map[string]any); absent phase keys default to enabled
//   - Settings or *Settings: already canonical, passed through
//
// Any other shape, a non-bool phase value, a non-map metadata value, or an
// unrecognized map key yields an *InvalidOptionsError. Normalize is
// idempotent: normalizing its own output returns it unchanged.
func Normalize(v any) (Settings, error) {
	return normalizeOver(Defaults(), v)
}

// Resolve merges a per-call override v on top of the attach-time base.
// Boolean fields present in the override replace the base values; override
// metadata merges key-by-key on top of base metadata, override keys winning
// on conflict. A nil override returns the base unchanged.
func Resolve(base Settings, v any) (Settings, error) {
	if v == nil {
		return base, nil
	}
	return normalizeOver(base, v)
}

// normalizeOver dispatches on the input variant, canonicalizing v relative
// to base.
func normalizeOver(base Settings, v any) (Settings, error) {
	switch o := v.(type) {
	case bool:
		return normalizeBool(base, o), nil
	case map[string]any:
		return normalizeMap(base, o)
	case Settings:
		return normalizeSettings(base, o), nil
	case *Settings:
		if o == nil {
			return base, nil
		}
		return normalizeSettings(base, *o), nil
	default:
		return Settings{}, &InvalidOptionsError{Value: v, reason: "expected bool, map or Settings"}
	}
}

func normalizeBool(base Settings, enabled bool) Settings {
	return Settings{Pipeline: enabled, Adapter: enabled, Metadata: cloneMetadata(base.Metadata)}
}

func normalizeMap(base Settings, m map[string]any) (Settings, error) {
	for key := range m {
		if _, ok := settingsKeys[key]; !ok {
			return Settings{}, &InvalidOptionsError{Value: m, reason: fmt.Sprintf("unrecognized key %q", key)}
		}
	}

	out := Settings{
		Pipeline: base.Pipeline,
		Adapter:  base.Adapter,
		Metadata: cloneMetadata(base.Metadata),
	}

	if v, ok := m["pipeline"]; ok {
		b, ok := v.(bool)
		if !ok {
			return Settings{}, &InvalidOptionsError{Value: v, reason: `"pipeline" must be a bool`}
		}
		out.Pipeline = b
	}
	if v, ok := m["adapter"]; ok {
		b, ok := v.(bool)
		if !ok {
			return Settings{}, &InvalidOptionsError{Value: v, reason: `"adapter" must be a bool`}
		}
		out.Adapter = b
	}
	if v, ok := m["metadata"]; ok {
		md, ok := v.(map[string]any)
		if !ok {
			return Settings{}, &InvalidOptionsError{Value: v, reason: `"metadata" must be a map[string]any`}
		}
		for k, mv := range md {
			out.Metadata[k] = mv
		}
	}

	return out, nil
}

func normalizeSettings(base, s Settings) Settings {
	return Settings{
		Pipeline: s.Pipeline,
		Adapter:  s.Adapter,
		Metadata: mergeMetadata(base.Metadata, s.Metadata),
	}
}

// Merge combines base settings with an override: boolean fields replace,
// metadata merges with override keys winning.
func Merge(base, override Settings) Settings {
	return Settings{
		Pipeline: override.Pipeline,
		Adapter:  override.Adapter,
		Metadata: mergeMetadata(base.Metadata, override.Metadata),
	}
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeMetadata(base, override map[string]any) map[string]any {
	out := cloneMetadata(base)
	for k, v := range override {
		out[k] = v
	}
	return out
}
