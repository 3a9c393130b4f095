package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/uu-dev/uu-bridge/config"
	"github.com/uu-dev/uu-bridge/domain/ports"
	uuwazero "github.com/uu-dev/uu-bridge/infrastructure/wazero"
)

// Executor creates sessions. Compiled modules are cached across sessions.
type Executor struct {
	cache          wazero.CompilationCache
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	imports        []uuwazero.CustomHandler
	cfg            config.Config
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...Option) (*Executor, error) {
	e := &Executor{
		cfg:    config.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	e.cache = wazero.NewCompilationCache()
	return e, nil
}

// Config returns the settings sessions are created with.
func (e *Executor) Config() config.Config {
	return e.cfg
}

// Close releases the compilation cache. Open sessions are unaffected.
func (e *Executor) Close(ctx context.Context) error {
	return e.cache.Close(ctx)
}

func (e *Executor) runtimeConfig() wazero.RuntimeConfig {
	return wazero.NewRuntimeConfig().
		WithCompilationCache(e.cache).
		WithCloseOnContextDone(true)
}

// NewSession prepares a session writing to tree. When tree also
// implements ports.ExternalLookup, pre-existing host objects can be adopted.
func (e *Executor) NewSession(ctx context.Context, tree ports.HostTree) (*Session, error) {
	if tree == nil {
		return nil, fmt.Errorf("host: tree is required")
	}
	return newSession(ctx, e, tree)
}
