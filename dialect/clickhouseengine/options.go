package clickhouseengine

import (
	"github.com/columnarkit/clickhouse-dialect-go/dialect"
)

// Option defines a functional option for configuring Adapter.
type Option func(*Adapter) error

// WithBaseResolver sets the resolver supplying the underlying types' own
// coercion chains. Defaults to the passthrough resolver.
func WithBaseResolver(base dialect.BaseResolver) Option {
	return func(a *Adapter) error {
		a.base = base
		return nil
	}
}

// WithLogger sets the logger for the Adapter.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: row counts and durations (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger dialect.Logger) Option {
	return func(a *Adapter) error {
		a.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Adapter.
// The contextual logger will receive log messages with context information including
// automatic trace/span correlation when tracing is enabled, enabling unified observability.
func WithContextualLogger(logger dialect.ContextualLogger) Option {
	return func(a *Adapter) error {
		a.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Adapter.
// The metrics collector will receive performance and operational metrics including
// insert/query durations, row counts, and database errors.
func WithMetrics(collector dialect.MetricsCollector) Option {
	return func(a *Adapter) error {
		a.metricsCollector = collector
		return nil
	}
}
