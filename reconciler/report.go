package reconciler

import (
	"github.com/uu-dev/uu-bridge/domain/entities"
	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
)

// Report summarizes one Apply or Remove call.
type Report struct {
	// Errors holds per-node failures. A failing node never blocks the
	// rest of the batch.
	Errors    []error
	Created   int
	Updated   int
	Unchanged int
	Deferred  int
	Removed   int
}

// OK reports whether every node was handled without error.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// ErrorDetails converts the per-node errors to their structured form.
func (r Report) ErrorDetails() []*entities.ErrorDetail {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make([]*entities.ErrorDetail, 0, len(r.Errors))
	for _, err := range r.Errors {
		out = append(out, bridgeerrors.ToErrorDetail(err))
	}
	return out
}

func (r *Report) fail(err error) {
	r.Errors = append(r.Errors, err)
}

type outcome int

const (
	outcomeDeferred outcome = iota
	outcomeCreated
	outcomeUpdated
	outcomeUnchanged
)

func (r *Report) count(o outcome) {
	switch o {
	case outcomeCreated:
		r.Created++
	case outcomeUpdated:
		r.Updated++
	case outcomeUnchanged:
		r.Unchanged++
	case outcomeDeferred:
		r.Deferred++
	}
}
