package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/uu-dev/uu-bridge/domain/entities"
	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/events"
	"github.com/uu-dev/uu-bridge/hostfuncs"
	"github.com/uu-dev/uu-bridge/identity"
	uuwazero "github.com/uu-dev/uu-bridge/infrastructure/wazero"
	uulog "github.com/uu-dev/uu-bridge/log"
	"github.com/uu-dev/uu-bridge/reconciler"
	"github.com/uu-dev/uu-bridge/transport"
)

// CoreModuleName is the instance name given to the loaded core module.
const CoreModuleName = "core"

// Session binds one core module to one host tree. Host-initiated calls
// into the core are serialized; imports called by the core run on the
// goroutine that entered it.
type Session struct {
	mu sync.Mutex

	logger     *slog.Logger
	tree       ports.HostTree
	ids        *identity.Registry
	reconciler *reconciler.Reconciler
	events     *events.Bridge
	registry   *hostfuncs.HandlerRegistry

	runtime wazero.Runtime
	buffers *uuwazero.ExportedBuffers
	module  api.Module
	event   *transport.Buffer

	eventBufferSize uint32
}

func newSession(ctx context.Context, e *Executor, tree ports.HostTree) (*Session, error) {
	cfg := e.cfg
	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	recOpts, err := cfg.ReconcilerOptions()
	if err != nil {
		return nil, err
	}

	var idOpts []identity.Option
	if lookup, ok := tree.(ports.ExternalLookup); ok {
		idOpts = append(idOpts, identity.WithExternalLookup(lookup))
	}
	ids := identity.NewRegistry(idOpts...)
	listeners := events.NewBridge(ids, events.WithLogger(e.logger))

	recOpts = append(recOpts,
		reconciler.WithLogger(e.logger),
		reconciler.WithMeterProvider(e.meterProvider),
		reconciler.WithRetireHook(listeners.Forget),
	)
	rec, err := reconciler.New(tree, ids, recOpts...)
	if err != nil {
		return nil, err
	}

	middleware := []hostfuncs.Middleware{
		hostfuncs.PanicRecoveryMiddleware(),
		hostfuncs.LoggingMiddleware(e.logger),
	}
	if e.tracerProvider != nil {
		middleware = append(middleware, hostfuncs.TracingMiddleware(e.tracerProvider))
	}
	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(middleware...),
		hostfuncs.WithBundle(&hostfuncs.Bridge{
			Codec:     codec,
			Tree:      rec,
			IDs:       ids,
			Listeners: listeners,
			Console:   uulog.NewConsoleSink(e.logger),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("host: failed to build registry: %w", err)
	}

	s := &Session{
		logger:          e.logger,
		tree:            tree,
		ids:             ids,
		reconciler:      rec,
		events:          listeners,
		registry:        registry,
		buffers:         uuwazero.NewExportedBuffers(cfg.BufferSize),
		eventBufferSize: cfg.EventBufferSize,
	}

	s.runtime = wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig())
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, s.runtime); err != nil {
		_ = s.runtime.Close(ctx)
		return nil, fmt.Errorf("host: failed to instantiate WASI: %w", err)
	}
	adapterOpts := []uuwazero.AdapterOption{
		uuwazero.WithModuleName(cfg.ModuleName),
		uuwazero.WithMaxRequestSize(cfg.MaxRequestSize),
		uuwazero.WithBuffers(s.buffers),
		uuwazero.WithLogger(e.logger),
	}
	for _, h := range e.imports {
		adapterOpts = append(adapterOpts, uuwazero.WithCustomHandler(h))
	}
	err = uuwazero.RegisterWithRuntime(ctx, s.runtime, registry, adapterOpts...)
	if err != nil {
		_ = s.runtime.Close(ctx)
		return nil, fmt.Errorf("host: failed to register host functions: %w", err)
	}
	return s, nil
}

// Load instantiates the core module and locates its buffers. The core's
// entry point is not run; see Run.
func (s *Session) Load(ctx context.Context, wasm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.module != nil {
		return fmt.Errorf("host: session already has a core module")
	}

	compiled, err := s.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return fmt.Errorf("host: failed to compile core module: %w", err)
	}
	mod, err := s.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(CoreModuleName).WithStartFunctions())
	if err != nil {
		return fmt.Errorf("host: failed to instantiate core module: %w", err)
	}

	// Reactors built with wasmexport need their runtime initialized first.
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return fmt.Errorf("host: failed to call _initialize: %w", err)
		}
	}

	if _, err := s.buffers.GeneralBuffer(ctx, mod); err != nil {
		_ = mod.Close(ctx)
		return err
	}
	s.module = mod

	base, err := uuwazero.PointerExport(ctx, mod, ports.ExportEventBufferPointer)
	if err != nil {
		s.logger.WarnContext(ctx, "host: core cannot receive events", "error", err)
		return nil
	}
	s.event = transport.NewBuffer(mod.Memory(), transport.Region{
		Name:     transport.RegionEvent,
		Base:     base,
		Capacity: s.eventBufferSize,
	})
	// DispatchEvent holds s.mu for the whole delivery.
	s.events.SetTarget(events.NewCoreTarget(coreModule{mod}, s.event, nil))
	return nil
}

// Run calls the core's main export, or _start when main is absent. A WASI
// exit with status zero counts as success.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.module == nil {
		return fmt.Errorf("host: no core module loaded")
	}
	for _, name := range []string{ports.ExportMain, ports.ExportStart} {
		fn := s.module.ExportedFunction(name)
		if fn == nil {
			continue
		}
		_, err := fn.Call(ctx)
		var exit *sys.ExitError
		if errors.As(err, &exit) && exit.ExitCode() == 0 {
			return nil
		}
		if err != nil {
			return fmt.Errorf("host: %s failed: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("host: core module exports neither %q nor %q", ports.ExportMain, ports.ExportStart)
}

// DispatchEvent reports an interaction on el. It returns false when the
// element is unknown to the session or nobody listens for eventType.
func (s *Session) DispatchEvent(ctx context.Context, el ports.Element, eventType string, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.Dispatch(ctx, el, eventType, fields)
}

// Sync applies a snapshot on behalf of the host, outside any core call.
func (s *Session) Sync(ctx context.Context, snap entities.Snapshot) (reconciler.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciler.Apply(ctx, snap)
}

// Lookup returns the live element bound to id.
func (s *Session) Lookup(id string) (ports.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids.Lookup(id)
}

// Events returns the session's listener table.
func (s *Session) Events() *events.Bridge {
	return s.events
}

// Registry returns the bridge operations served to the core.
func (s *Session) Registry() *hostfuncs.HandlerRegistry {
	return s.registry
}

// Tree returns the host tree the session writes to.
func (s *Session) Tree() ports.HostTree {
	return s.tree
}

// Memory returns the core's linear memory, or nil before Load.
func (s *Session) Memory() ports.Memory {
	if s.module == nil {
		return nil
	}
	return s.module.Memory()
}

// Close releases the runtime and the core module.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.module != nil {
		s.buffers.Forget(s.module)
		s.module = nil
	}
	return s.runtime.Close(ctx)
}

// coreModule exposes a wazero module as ports.Core.
type coreModule struct {
	mod api.Module
}

func (c coreModule) Memory() ports.Memory {
	return c.mod.Memory()
}

func (c coreModule) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := c.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("export %q not found", name)
	}
	return fn.Call(ctx, params...)
}
