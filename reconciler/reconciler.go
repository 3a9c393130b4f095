package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/uu-dev/uu-bridge/domain/entities"
	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/identity"
)

const meterName = "github.com/uu-dev/uu-bridge/reconciler"

// Reconciler applies snapshots to a host tree. It is not safe for
// concurrent use; a host session serializes calls into it.
type Reconciler struct {
	tree          ports.HostTree
	ids           *identity.Registry
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	nodes         metric.Int64Counter

	// state is the last description applied per live id.
	state map[string]entities.Node
	// children lists, per parent id, the ids the reconciler attached to it.
	children map[string][]string
	// created marks ids whose element the reconciler created, as opposed
	// to adopted host objects.
	created map[string]struct{}
	pending *pendingQueue
	onRetire []func(id string)

	mode   Mode
	policy ParentPolicy
}

// New creates a Reconciler writing to tree and binding elements in ids.
// A nil registry gets a fresh one.
func New(tree ports.HostTree, ids *identity.Registry, opts ...Option) (*Reconciler, error) {
	if tree == nil {
		return nil, fmt.Errorf("reconciler: host tree is required")
	}
	if ids == nil {
		ids = identity.NewRegistry()
	}

	r := &Reconciler{
		tree:          tree,
		ids:           ids,
		logger:        slog.Default(),
		meterProvider: otel.GetMeterProvider(),
		state:         make(map[string]entities.Node),
		children:      make(map[string][]string),
		created:       make(map[string]struct{}),
		pending:       newPendingQueue(DefaultMaxPending),
		mode:          ModeIncremental,
		policy:        ParentDefer,
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := ParseMode(string(r.mode)); err != nil {
		return nil, err
	}
	if _, err := ParseParentPolicy(string(r.policy)); err != nil {
		return nil, err
	}

	counter, err := r.meterProvider.Meter(meterName).Int64Counter(
		"uu.reconciler.nodes",
		metric.WithDescription("Nodes handled by the reconciler, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("reconciler: failed to create counter: %w", err)
	}
	r.nodes = counter
	return r, nil
}

// Mode returns the snapshot interpretation mode.
func (r *Reconciler) Mode() Mode {
	return r.mode
}

// Registry returns the identity registry the reconciler binds into.
func (r *Reconciler) Registry() *identity.Registry {
	return r.ids
}

// State returns the recorded description of a live id.
func (r *Reconciler) State(id string) (entities.Node, bool) {
	n, ok := r.state[id]
	if !ok {
		return entities.Node{}, false
	}
	return n.Clone(), true
}

// Pending returns the deferred nodes in arrival order.
func (r *Reconciler) Pending() []entities.Node {
	return r.pending.list()
}

// Apply reconciles the host tree with s. Node-level failures are collected
// in the report; the returned error is reserved for a cancelled context.
func (r *Reconciler) Apply(ctx context.Context, s entities.Snapshot) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	var rep Report
	seen := make(map[string]struct{}, len(s))
	// Every parseable id in the snapshot survives a full-mode sweep, even
	// when its description is rejected.
	named := make(map[string]struct{}, len(s))
	fresh := make([]entities.Node, 0, len(s))
	for _, n := range s {
		if identity.Validate(n.ID) {
			named[n.ID] = struct{}{}
		}
		if err := r.validate(n); err != nil {
			rep.fail(err)
			continue
		}
		if _, dup := seen[n.ID]; dup {
			rep.fail(bridgeerrors.MalformedNode(n.ID, "node appears twice in one snapshot"))
			continue
		}
		seen[n.ID] = struct{}{}
		fresh = append(fresh, n)
	}

	// Deferred nodes go first so siblings keep their arrival order. A fresh
	// description supersedes a deferred one.
	var work []entities.Node
	for _, n := range r.pending.drain() {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		if r.mode == ModeFull {
			r.logger.DebugContext(ctx, "dropping deferred node absent from full snapshot", "node", n.ID)
			continue
		}
		work = append(work, n)
	}
	work = append(work, fresh...)

	for len(work) > 0 {
		var next []entities.Node
		for _, n := range work {
			o, err := r.applyNode(n)
			switch {
			case err != nil:
				rep.fail(err)
			case o == outcomeDeferred:
				next = append(next, n)
			default:
				rep.count(o)
			}
		}
		if len(next) == len(work) {
			work = next
			break
		}
		work = next
	}

	for _, n := range work {
		r.deferNode(n, &rep)
	}

	if r.mode == ModeFull {
		r.sweep(named, &rep)
	}

	r.record(ctx, "apply", rep)
	return rep, nil
}

// Remove detaches the elements bound to ids together with their subtrees
// and retires every identifier involved. Deferred nodes waiting on a
// removed id are dropped and reported as dangling. Unknown and already
// retired ids are ignored.
func (r *Reconciler) Remove(ctx context.Context, ids []string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	var rep Report
	for _, id := range ids {
		if !identity.Validate(id) {
			rep.fail(bridgeerrors.MalformedNode(id, "invalid identifier"))
			continue
		}
		if _, ok := r.pending.remove(id); ok {
			rep.Removed++
			r.orphanPending(map[string]struct{}{id: {}}, &rep)
			continue
		}
		if err := r.removeSubtree(id, &rep); err != nil {
			rep.fail(err)
		}
	}

	r.record(ctx, "remove", rep)
	return rep, nil
}

func (r *Reconciler) validate(n entities.Node) error {
	switch {
	case !identity.Validate(n.ID):
		return bridgeerrors.MalformedNode(n.ID, "invalid identifier")
	case n.Tag == "" && !r.adopted(n.ID):
		return bridgeerrors.MalformedNode(n.ID, "missing tag")
	case n.HasParent() && !identity.Validate(n.ParentID):
		return bridgeerrors.MalformedNode(n.ID, fmt.Sprintf("invalid parent identifier %q", n.ParentID))
	case n.ParentID == n.ID:
		return bridgeerrors.MalformedNode(n.ID, "node cannot be its own parent")
	case r.ids.IsRetired(n.ID):
		return &bridgeerrors.IdentityReuseError{ID: n.ID, Retired: true}
	}
	return nil
}

// adopted reports whether id is bound to a host object the reconciler did
// not create. Such nodes may omit their tag.
func (r *Reconciler) adopted(id string) bool {
	if _, ok := r.created[id]; ok {
		return false
	}
	_, ok := r.ids.Lookup(id)
	return ok
}

func (r *Reconciler) applyNode(n entities.Node) (outcome, error) {
	if n.IsText() {
		n.Attributes = nil
	}

	if prev, ok := r.state[n.ID]; ok {
		if prev.Tag != n.Tag {
			return 0, bridgeerrors.MalformedNode(n.ID, fmt.Sprintf("tag cannot change from %q to %q", prev.Tag, n.Tag))
		}
		if prev.ParentID != n.ParentID {
			return 0, bridgeerrors.MalformedNode(n.ID, fmt.Sprintf("parent cannot change from %q to %q", prev.ParentID, n.ParentID))
		}
		el, _ := r.ids.Lookup(n.ID)
		return r.update(el, prev, n)
	}

	// Bound without recorded state: an adopted host object. It keeps its
	// place in the host tree and is diffed against an empty description.
	if el, ok := r.ids.Lookup(n.ID); ok {
		return r.update(el, entities.Node{}, n)
	}

	parent := r.tree.Root()
	if n.HasParent() {
		if r.ids.IsRetired(n.ParentID) {
			return 0, &bridgeerrors.DanglingParentError{NodeID: n.ID, ParentID: n.ParentID, Reason: "parent was removed"}
		}
		pel, ok := r.ids.Lookup(n.ParentID)
		if !ok {
			return outcomeDeferred, nil
		}
		parent = pel
	}

	el, err := r.create(n)
	if err != nil {
		return 0, err
	}
	if err := r.tree.AppendChild(parent, el); err != nil {
		return 0, hostError(n.ID, "append child", err)
	}
	if err := r.ids.Bind(n.ID, el); err != nil {
		_ = r.tree.Remove(el)
		return 0, err
	}

	r.state[n.ID] = n.Clone()
	r.created[n.ID] = struct{}{}
	if n.HasParent() {
		r.children[n.ParentID] = append(r.children[n.ParentID], n.ID)
	}
	return outcomeCreated, nil
}

func (r *Reconciler) update(el ports.Element, prev, n entities.Node) (outcome, error) {
	mutated, err := r.patch(el, prev, n)
	if err != nil {
		return 0, err
	}
	r.state[n.ID] = n.Clone()
	if mutated {
		return outcomeUpdated, nil
	}
	return outcomeUnchanged, nil
}

func (r *Reconciler) create(n entities.Node) (ports.Element, error) {
	if n.IsText() {
		el, err := r.tree.CreateText(n.Text)
		if err != nil {
			return nil, hostError(n.ID, "create text", err)
		}
		return el, nil
	}

	el, err := r.tree.CreateElement(n.Tag)
	if err != nil {
		return nil, hostError(n.ID, "create element", err)
	}
	if _, err := r.patch(el, entities.Node{}, n); err != nil {
		return nil, err
	}
	return el, nil
}

// patch issues the host calls turning prev into next and reports whether
// any were needed.
func (r *Reconciler) patch(el ports.Element, prev, next entities.Node) (bool, error) {
	mutated := false

	if prev.Text != next.Text {
		if err := r.tree.SetText(el, next.Text); err != nil {
			return mutated, hostError(next.ID, "set text", err)
		}
		mutated = true
	}

	for _, name := range next.Attributes.Names() {
		if name == "" {
			continue
		}
		v := next.Attributes[name]
		if old, had := prev.Attributes[name]; had && entities.SameValue(old, v) {
			continue
		}
		if err := r.tree.SetAttribute(el, name, v); err != nil {
			return mutated, hostError(next.ID, "set attribute "+name, err)
		}
		mutated = true
	}

	for _, name := range prev.Attributes.Names() {
		if name == "" {
			continue
		}
		if _, keep := next.Attributes[name]; keep {
			continue
		}
		if err := r.tree.RemoveAttribute(el, name); err != nil {
			return mutated, hostError(next.ID, "remove attribute "+name, err)
		}
		mutated = true
	}

	return mutated, nil
}

func (r *Reconciler) deferNode(n entities.Node, rep *Report) {
	if r.policy == ParentReject {
		rep.fail(&bridgeerrors.DanglingParentError{NodeID: n.ID, ParentID: n.ParentID, Reason: "parent is not live"})
		return
	}
	if !r.pending.put(n) {
		rep.fail(&bridgeerrors.DanglingParentError{
			NodeID:   n.ID,
			ParentID: n.ParentID,
			Reason:   fmt.Sprintf("pending queue is full (%d nodes)", r.pending.max),
		})
		return
	}
	rep.count(outcomeDeferred)
}

// sweep removes live ids created by the reconciler that are absent from a
// full snapshot.
func (r *Reconciler) sweep(named map[string]struct{}, rep *Report) {
	var stale []string
	for id := range r.created {
		if _, ok := named[id]; !ok {
			stale = append(stale, id)
		}
	}
	slices.Sort(stale)

	for _, id := range stale {
		// Already gone with an ancestor's subtree.
		if _, ok := r.state[id]; !ok {
			continue
		}
		if err := r.removeSubtree(id, rep); err != nil {
			rep.fail(err)
		}
	}
}

func (r *Reconciler) removeSubtree(id string, rep *Report) error {
	el, ok := r.ids.Lookup(id)
	if !ok {
		return nil
	}
	if err := r.tree.Remove(el); err != nil {
		return hostError(id, "remove", err)
	}

	if prev, ok := r.state[id]; ok && prev.HasParent() {
		siblings := r.children[prev.ParentID]
		if i := slices.Index(siblings, id); i >= 0 {
			r.children[prev.ParentID] = slices.Delete(siblings, i, i+1)
		}
	}
	r.retire(id, rep)
	r.orphanPending(nil, rep)
	return nil
}

func (r *Reconciler) retire(id string, rep *Report) {
	for _, child := range r.children[id] {
		r.retire(child, rep)
	}
	delete(r.children, id)
	delete(r.state, id)
	delete(r.created, id)
	r.ids.Retire(id)
	rep.Removed++
	for _, fn := range r.onRetire {
		fn(id)
	}
}

// orphanPending drops deferred nodes whose parent was retired or dropped,
// transitively.
func (r *Reconciler) orphanPending(dropped map[string]struct{}, rep *Report) {
	if dropped == nil {
		dropped = make(map[string]struct{})
	}
	for changed := true; changed; {
		changed = false
		for _, n := range r.pending.list() {
			_, gone := dropped[n.ParentID]
			if !gone && !r.ids.IsRetired(n.ParentID) {
				continue
			}
			r.pending.remove(n.ID)
			dropped[n.ID] = struct{}{}
			rep.fail(&bridgeerrors.DanglingParentError{NodeID: n.ID, ParentID: n.ParentID, Reason: "parent was removed"})
			changed = true
		}
	}
}

func (r *Reconciler) record(ctx context.Context, op string, rep Report) {
	for _, c := range []struct {
		outcome string
		n       int
	}{
		{"created", rep.Created},
		{"updated", rep.Updated},
		{"unchanged", rep.Unchanged},
		{"deferred", rep.Deferred},
		{"removed", rep.Removed},
		{"error", len(rep.Errors)},
	} {
		if c.n == 0 {
			continue
		}
		r.nodes.Add(ctx, int64(c.n), metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("outcome", c.outcome),
		))
	}

	for _, err := range rep.Errors {
		r.logger.WarnContext(ctx, "node rejected", "op", op, "error", err)
	}
}

func hostError(id, op string, err error) error {
	return fmt.Errorf("reconciler: %s on node %s: %w", op, id, err)
}
