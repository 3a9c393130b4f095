package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/hostfuncs"
	"github.com/uu-dev/uu-bridge/transport"
)

// DefaultModuleName is the import module core modules link against.
const DefaultModuleName = "env"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "env").
	ModuleName string

	// MaxRequestSize limits the size of incoming requests from core memory.
	// Default is 1MB.
	MaxRequestSize uint32

	// Buffers locates the general buffer of the calling module. Default is
	// an ExportedBuffers of transport.DefaultBufferSize.
	Buffers BufferSource

	Logger *slog.Logger

	// CustomHandlers adds functions beyond the bridge operations.
	CustomHandlers []CustomHandler
}

// CustomHandler represents an additional host function.
type CustomHandler struct {
	// Name is the exported function name.
	Name string

	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "env").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum request size from core memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithBuffers sets how the general buffer is located.
func WithBuffers(b BufferSource) AdapterOption {
	return func(c *AdapterConfig) {
		c.Buffers = b
	}
}

// WithLogger sets the logger for import failures.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = l
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: transport.DefaultMaxRequestSize,
	}
}

var (
	i32      = api.ValueTypeI32
	ptrLen   = []api.ValueType{i32, i32}
	oneI32   = []api.ValueType{i32}
	noValues = []api.ValueType{}
)

// RegisterWithRuntime instantiates the host module that serves registry to
// core modules.
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(bridge),
//	)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithModuleName("env"),
//	)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Buffers == nil {
		cfg.Buffers = NewExportedBuffers(transport.DefaultBufferSize)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	im := NewImports(registry, cfg.Logger, cfg.MaxRequestSize)
	g := &glue{imports: im, buffers: cfg.Buffers, logger: cfg.Logger}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	export := func(name string, fn api.GoModuleFunc, params, results []api.ValueType) {
		builder.NewFunctionBuilder().WithGoModuleFunction(fn, params, results).Export(name)
	}

	export(ports.ImportConsoleLog, g.consoleLog, ptrLen, noValues)
	export(ports.ImportUUIDv4, g.uuidV4, noValues, oneI32)
	export(ports.ImportSyncElements, g.syncElements, ptrLen, oneI32)
	export(ports.ImportGetElementByID, g.getElementByID, ptrLen, oneI32)
	export(ports.ImportUploadBytes, g.uploadBytes, ptrLen, oneI32)
	export(ports.ImportAddEventListener, g.addEventListener, ptrLen, oneI32)

	for _, ch := range cfg.CustomHandlers {
		export(ch.Name, ch.Handler, ch.ParamTypes, ch.ResultTypes)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("wazero: failed to instantiate %q host module: %w", cfg.ModuleName, err)
	}
	return nil
}

// glue adapts Imports to the wazero stack calling convention.
type glue struct {
	imports *Imports
	buffers BufferSource
	logger  *slog.Logger
}

func (g *glue) buffer(ctx context.Context, mod api.Module, fn string) (*transport.Buffer, bool) {
	buf, err := g.buffers.GeneralBuffer(ctx, mod)
	if err != nil {
		g.logger.ErrorContext(ctx, "wazero: general buffer unavailable",
			"function", fn, "core", coreName(ctx, mod), "error", err)
		return nil, false
	}
	return buf, true
}

func offsetLength(stack []uint64) (offset, length uint32) {
	return api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
}

func (g *glue) consoleLog(ctx context.Context, mod api.Module, stack []uint64) {
	offset, length := offsetLength(stack)
	g.imports.ConsoleLog(ctx, mod.Memory(), offset, length)
}

func (g *glue) uuidV4(ctx context.Context, mod api.Module, stack []uint64) {
	buf, ok := g.buffer(ctx, mod, ports.ImportUUIDv4)
	if !ok {
		stack[0] = api.EncodeU32(0)
		return
	}
	stack[0] = api.EncodeU32(g.imports.UUIDv4(ctx, buf))
}

func (g *glue) syncElements(ctx context.Context, mod api.Module, stack []uint64) {
	offset, length := offsetLength(stack)
	buf, ok := g.buffer(ctx, mod, ports.ImportSyncElements)
	if !ok {
		stack[0] = api.EncodeI32(ports.StatusFailed)
		return
	}
	stack[0] = api.EncodeI32(g.imports.SyncElements(ctx, mod.Memory(), buf, offset, length))
}

func (g *glue) getElementByID(ctx context.Context, mod api.Module, stack []uint64) {
	offset, length := offsetLength(stack)
	buf, ok := g.buffer(ctx, mod, ports.ImportGetElementByID)
	if !ok {
		stack[0] = api.EncodeU32(0)
		return
	}
	stack[0] = api.EncodeU32(g.imports.GetElementByID(ctx, mod.Memory(), buf, offset, length))
}

func (g *glue) uploadBytes(ctx context.Context, mod api.Module, stack []uint64) {
	offset, length := offsetLength(stack)
	buf, ok := g.buffer(ctx, mod, ports.ImportUploadBytes)
	if !ok {
		stack[0] = api.EncodeU32(ports.UploadFailed)
		return
	}
	stack[0] = api.EncodeU32(g.imports.UploadBytes(ctx, mod.Memory(), buf, offset, length))
}

func (g *glue) addEventListener(ctx context.Context, mod api.Module, stack []uint64) {
	offset, length := offsetLength(stack)
	stack[0] = api.EncodeI32(g.imports.AddEventListener(ctx, mod.Memory(), offset, length))
}
