package telemetry

import (
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// LoggerHandlerID is the fixed handler id under which the default log
// subscriber registers. Attaching the logger twice to the same bus fails
// with ErrHandlerExists.
const LoggerHandlerID = "beacon.logger"

// logTag prefixes every line written by the default subscriber.
const logTag = "beacon"

// defaultLogger writes human-readable lines to stdout.
var defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// LoggerOption configures AttachLogger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	logger zerolog.Logger
	events []string
}

// WithLogger sets the zerolog logger lines are written to.
// Defaults to a stdout logger with timestamps.
func WithLogger(logger zerolog.Logger) LoggerOption {
	return func(cfg *loggerConfig) {
		cfg.logger = logger
	}
}

// WithLoggedEvents restricts the subscriber to the given event names.
// Use AdapterEvents or PipelineEvents for the common phase filters, or list
// names explicitly. Defaults to all six event names.
//
// An unknown name is a configuration error raised by AttachLogger.
func WithLoggedEvents(names ...string) LoggerOption {
	return func(cfg *loggerConfig) {
		cfg.events = names
	}
}

// AttachLogger subscribes the default log subscriber to bus.
//
// The subscriber writes one info-level line per start and stop event and one
// error-level line (followed by the error value) per error event. Lines from
// the same request share a short hash of the correlation id:
//
//	beacon:1a2b3c4d - GET https://api.example.com/users (pipeline)
//	beacon:1a2b3c4d - 200 in 38ms (pipeline)
//
// AttachLogger fails with ErrHandlerExists when already attached, and with a
// configuration error when WithLoggedEvents names an unknown event.
func AttachLogger(bus *Bus, opts ...LoggerOption) error {
	cfg := &loggerConfig{
		logger: defaultLogger,
		events: EventNames(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	return bus.SubscribeMany(LoggerHandlerID, cfg.events,
		func(name string, m Measurements, md Metadata) {
			logEvent(logger, name, m, md)
		})
}

// logEvent renders one event as a log line.
func logEvent(logger zerolog.Logger, name string, m Measurements, md Metadata) {
	phase, point, _ := strings.Cut(name, ".")
	ref := correlationHash(md.CorrelationID)

	switch point {
	case "start":
		evt := logger.Info()
		withUserMetadata(evt, md.User)
		evt.Msgf("%s:%s - %s %s (%s)", logTag, ref, md.Method, md.URL, phase)
	case "stop":
		evt := logger.Info()
		withUserMetadata(evt, md.User)
		evt.Msgf("%s:%s - %d in %sms (%s)", logTag, ref, md.StatusCode, durationMillis(m), phase)
	case "error":
		evt := logger.Error()
		withUserMetadata(evt, md.User)
		evt.Msgf("%s:%s - ERROR in %sms (%s)\n%+v", logTag, ref, durationMillis(m), phase, md.Err)
	}
}

// correlationHash returns a short deterministic digest of the correlation
// id. The raw id is never logged; the hash is enough to correlate lines from
// one request. FNV-1a, not cryptographic.
func correlationHash(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return fmt.Sprintf("%08x", h.Sum32())
}

// durationMillis formats the measurement duration in whole milliseconds,
// or "?" when the phase's start event was suppressed.
func durationMillis(m Measurements) string {
	if m.Duration == nil {
		return "?"
	}
	return strconv.FormatInt(m.Duration.Milliseconds(), 10)
}

// withUserMetadata attaches user metadata as a JSON field when present.
func withUserMetadata(evt *zerolog.Event, user map[string]any) {
	if len(user) == 0 {
		return
	}
	if b, err := json.Marshal(user); err == nil {
		evt.RawJSON("metadata", b)
	}
}
