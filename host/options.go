package host

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/uu-dev/uu-bridge/config"
	uuwazero "github.com/uu-dev/uu-bridge/infrastructure/wazero"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithConfig sets the session settings. Nil keeps the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(e *Executor) {
		if cfg != nil {
			e.cfg = *cfg
		}
	}
}

// WithLogger sets the logger for diagnostics and core console output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracerProvider traces every bridge operation through tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) {
		e.tracerProvider = tp
	}
}

// WithMeterProvider records reconciler counters through mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Executor) {
		e.meterProvider = mp
	}
}

// WithImport exports an extra host function from the bridge's import
// module in every session, next to the bridge imports.
func WithImport(h uuwazero.CustomHandler) Option {
	return func(e *Executor) {
		e.imports = append(e.imports, h)
	}
}
