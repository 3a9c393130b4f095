package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// contextKey is a private type for context keys.
type contextKey struct {
	name string
}

var coreNameKey = &contextKey{name: "core_name"}

// WithCoreName attaches a display name for the calling core to ctx.
func WithCoreName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, coreNameKey, name)
}

// CoreNameFromContext retrieves the name set by WithCoreName.
func CoreNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(coreNameKey).(string)
	return name, ok
}

// coreName returns the name from ctx, falling back to the module name.
func coreName(ctx context.Context, mod api.Module) string {
	if name, ok := CoreNameFromContext(ctx); ok {
		return name
	}
	if mod == nil {
		return ""
	}
	return mod.Name()
}
