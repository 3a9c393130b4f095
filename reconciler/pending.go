package reconciler

import (
	"slices"

	"github.com/uu-dev/uu-bridge/domain/entities"
)

// pendingQueue holds nodes whose parent is not live yet, in arrival order.
type pendingQueue struct {
	nodes map[string]entities.Node
	order []string
	max   int
}

func newPendingQueue(limit int) *pendingQueue {
	return &pendingQueue{nodes: make(map[string]entities.Node), max: limit}
}

// put stores or replaces n. It returns false when the queue is full and n
// is not already queued.
func (q *pendingQueue) put(n entities.Node) bool {
	if _, ok := q.nodes[n.ID]; ok {
		q.nodes[n.ID] = n
		return true
	}
	if len(q.order) >= q.max {
		return false
	}
	q.nodes[n.ID] = n
	q.order = append(q.order, n.ID)
	return true
}

func (q *pendingQueue) remove(id string) (entities.Node, bool) {
	n, ok := q.nodes[id]
	if !ok {
		return entities.Node{}, false
	}
	delete(q.nodes, id)
	if i := slices.Index(q.order, id); i >= 0 {
		q.order = slices.Delete(q.order, i, i+1)
	}
	return n, true
}

// drain empties the queue and returns its nodes in arrival order.
func (q *pendingQueue) drain() []entities.Node {
	out := q.list()
	q.nodes = make(map[string]entities.Node)
	q.order = nil
	return out
}

func (q *pendingQueue) list() []entities.Node {
	out := make([]entities.Node, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.nodes[id])
	}
	return out
}
