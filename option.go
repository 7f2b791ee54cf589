package concord

import (
	"github.com/concordrt/concord/internal/clock"
	"github.com/concordrt/concord/telemetry"
	"github.com/concordrt/concord/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithClock overrides the monotonic time source shared by every governance
// engine. Primarily for deterministic tests.
func WithClock(c clock.Source) Option {
	return func(r *Runtime) { r.clock = c }
}

// WithTelemetrySink overrides where the runtime emits telemetry.Records. The
// default is a Publisher backed by a bounded in-memory queue.
func WithTelemetrySink(sink telemetry.Sink) Option {
	return func(r *Runtime) { r.sink = sink }
}

// WithFileTelemetrySink appends every telemetry.Record to path as
// newline-delimited JSON. The file sink replaces the default in-memory stream
// and any sink set by an earlier option; records are not sent to both.
func WithFileTelemetrySink(path string) Option {
	return func(r *Runtime) { r.sink = telemetry.NewFileSink(path) }
}

// WithMaxParallelWorkers bounds the number of Parallel-mode workers that may
// run their loop concurrently; 0 (the default) means unbounded.
func WithMaxParallelWorkers(n int) Option {
	return func(r *Runtime) { r.config.Lifecycle.MaxParallelWorkers = n }
}

// WithAutoCascade wires the Lifecycle Engine's termination hook to the
// Destruction Policy Engine's on_parent_destroyed, so destruction cascades
// automatically instead of requiring the embedder to call it explicitly.
func WithAutoCascade(enabled bool) Option {
	return func(r *Runtime) { r.config.Lifecycle.AutoCascade = enabled }
}

// WithConfig applies every field of cfg, overriding defaults set by earlier
// options in the call.
func WithConfig(cfg Config) Option {
	return func(r *Runtime) { r.config = cfg }
}

// WithTracing configures OpenTelemetry tracing for the runtime's governance
// spans. If outputFile is empty the stdout exporter is used; otherwise
// traces are written to the supplied file path. Safe to call multiple times
// — the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(r *Runtime) { _ = tracing.Init(serviceName, serviceVersion, outputFile) }
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter, for integrations beyond the built-in stdout exporter (OTLP,
// Jaeger, Zipkin, ...).
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(r *Runtime) { _ = tracing.InitWithExporter(serviceName, serviceVersion, exporter) }
}
