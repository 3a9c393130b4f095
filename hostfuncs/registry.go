package hostfuncs

import (
	"context"
	"fmt"
	"slices"

	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
)

// HandlerRegistry is an immutable collection of operation handlers.
// Once created via NewRegistry, handlers cannot be added or removed,
// so lookups need no locking.
type HandlerRegistry struct {
	handlers   map[Operation]ByteHandler
	ops        []Operation // sorted for consistent iteration
	middleware []Middleware
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	handlers   map[Operation]ByteHandler
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable HandlerRegistry with the given options.
// Returns an error if an operation is registered twice or is not part of
// the supported set.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware(), LoggingMiddleware(logger)),
//	    WithBundle(bridge),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		handlers: make(map[Operation]ByteHandler),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	ops := make([]Operation, 0, len(b.handlers))
	for op := range b.handlers {
		ops = append(ops, op)
	}
	slices.Sort(ops)

	// Apply middleware in reverse order so the first one wraps outermost.
	wrappedHandlers := make(map[Operation]ByteHandler, len(b.handlers))
	for op, handler := range b.handlers {
		wrapped := handler
		for i := len(b.middleware) - 1; i >= 0; i-- {
			wrapped = b.middleware[i](wrapped)
		}
		wrappedHandlers[op] = wrapped
	}

	return &HandlerRegistry{
		handlers:   wrappedHandlers,
		ops:        ops,
		middleware: b.middleware,
	}, nil
}

// Invoke runs the handler registered for op.
func (r *HandlerRegistry) Invoke(ctx context.Context, op Operation, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[op]
	if !ok {
		return nil, &bridgeerrors.UnknownOperationError{Name: string(op)}
	}
	return handler(HostContextFrom(ctx, op), payload)
}

// Dispatch parses a `name\0payload` message and invokes its handler.
func (r *HandlerRegistry) Dispatch(ctx context.Context, msg []byte) ([]byte, error) {
	name, payload := SplitMessage(msg)
	op, err := ParseOperation(name)
	if err != nil {
		return nil, err
	}
	return r.Invoke(ctx, op, payload)
}

// Has returns true if a handler is registered for op.
func (r *HandlerRegistry) Has(op Operation) bool {
	_, ok := r.handlers[op]
	return ok
}

// Operations returns the registered operations in sorted order.
func (r *HandlerRegistry) Operations() []Operation {
	return slices.Clone(r.ops)
}

// addHandler registers a handler for op.
func (b *registryBuilder) addHandler(op Operation, handler ByteHandler) error {
	if _, err := ParseOperation(string(op)); err != nil {
		return fmt.Errorf("cannot register handler: %w", err)
	}
	if handler == nil {
		return fmt.Errorf("handler for %q cannot be nil", op)
	}
	if _, exists := b.handlers[op]; exists {
		return fmt.Errorf("duplicate handler for operation %q", op)
	}
	b.handlers[op] = handler
	return nil
}

// WithByteHandler registers a raw ByteHandler for op.
func WithByteHandler(op Operation, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(op, handler); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
