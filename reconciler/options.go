package reconciler

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

// Mode selects how snapshots are interpreted.
type Mode string

// Supported modes.
const (
	ModeIncremental Mode = "incremental"
	ModeFull        Mode = "full"
)

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeIncremental, ModeFull:
		return m, nil
	default:
		return "", fmt.Errorf("reconciler: unknown mode %q", s)
	}
}

// ParentPolicy selects how nodes with unresolved parents are handled.
type ParentPolicy string

// Supported parent policies.
const (
	// ParentDefer queues the node until its parent becomes live.
	ParentDefer ParentPolicy = "defer"
	// ParentReject reports the node as a dangling parent reference.
	ParentReject ParentPolicy = "reject"
)

// ParseParentPolicy maps a configuration string to a ParentPolicy.
func ParseParentPolicy(s string) (ParentPolicy, error) {
	switch p := ParentPolicy(s); p {
	case ParentDefer, ParentReject:
		return p, nil
	default:
		return "", fmt.Errorf("reconciler: unknown parent policy %q", s)
	}
}

// DefaultMaxPending bounds the pending queue unless overridden.
const DefaultMaxPending = 1024

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMode sets the snapshot interpretation mode.
func WithMode(m Mode) Option {
	return func(r *Reconciler) {
		r.mode = m
	}
}

// WithParentPolicy sets how unresolved parents are handled.
func WithParentPolicy(p ParentPolicy) Option {
	return func(r *Reconciler) {
		r.policy = p
	}
}

// WithMaxPending caps the number of deferred nodes. Values below 1 keep
// the default.
func WithMaxPending(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.pending.max = n
		}
	}
}

// WithLogger sets the logger used for per-node diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMeterProvider records node outcome counters through mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Reconciler) {
		if mp != nil {
			r.meterProvider = mp
		}
	}
}

// WithRetireHook registers fn to run for every id the reconciler retires,
// children before parents.
func WithRetireHook(fn func(id string)) Option {
	return func(r *Reconciler) {
		if fn != nil {
			r.onRetire = append(r.onRetire, fn)
		}
	}
}
