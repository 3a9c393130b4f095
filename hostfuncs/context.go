package hostfuncs

import (
	"context"
)

// HostContext wraps a standard context.Context with the operation being
// dispatched, so middleware can label logs and spans.
type HostContext interface {
	context.Context

	// Operation returns the operation being invoked.
	Operation() Operation
}

type hostContext struct {
	context.Context
	op Operation
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, op Operation) HostContext {
	return &hostContext{Context: ctx, op: op}
}

func (c *hostContext) Operation() Operation {
	return c.op
}

// HostContextFrom extracts a HostContext from a context.Context.
// If the context is already a HostContext for op, it is returned directly.
func HostContextFrom(ctx context.Context, op Operation) HostContext {
	if hc, ok := ctx.(HostContext); ok && hc.Operation() == op {
		return hc
	}
	return NewHostContext(ctx, op)
}

// OperationFrom returns the operation carried by ctx, if any.
func OperationFrom(ctx context.Context) (Operation, bool) {
	hc, ok := ctx.(HostContext)
	if !ok {
		return "", false
	}
	return hc.Operation(), true
}
