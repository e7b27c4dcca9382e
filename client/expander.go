package client

import (
	"context"
	"sort"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
)

// MultiObjectResult is the outcome of a multi-object fetch: the objects that
// match the request and the requested identifiers the catalogue never returned.
type MultiObjectResult struct {
	Objects map[string]cim.IdentifiedObject
	Failed  map[string]struct{}
}

// NewMultiObjectResult creates an empty result.
func NewMultiObjectResult() *MultiObjectResult {
	return &MultiObjectResult{
		Objects: make(map[string]cim.IdentifiedObject),
		Failed:  make(map[string]struct{}),
	}
}

// IDs returns the resolved identifiers, sorted.
func (r *MultiObjectResult) IDs() []string {
	ids := make([]string, 0, len(r.Objects))
	for id := range r.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FailedIDs returns the failed identifiers, sorted.
func (r *MultiObjectResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// merge folds other into r. An identifier resolved by either side is not failed.
func (r *MultiObjectResult) merge(other *MultiObjectResult) {
	if other == nil {
		return
	}
	for id, obj := range other.Objects {
		r.Objects[id] = obj
		delete(r.Failed, id)
	}
	for id := range other.Failed {
		if _, ok := r.Objects[id]; !ok {
			r.Failed[id] = struct{}{}
		}
	}
}

// expansion is the state of one run of the expander.
type expansion struct {
	store *graph.Store

	// requested holds every identifier ever put into a pass; order lists them
	// in request order.
	requested map[string]struct{}
	order     []string

	// sources are the objects this run is responsible for: roots already present
	// and everything received. Only their references are followed.
	sources map[string]struct{}

	passes int
}

func newExpansion(store *graph.Store) *expansion {
	return &expansion{
		store:     store,
		requested: make(map[string]struct{}),
		sources:   make(map[string]struct{}),
	}
}

// request records id and reports whether it was new.
func (x *expansion) request(id string) bool {
	if _, ok := x.requested[id]; ok {
		return false
	}
	x.requested[id] = struct{}{}
	x.order = append(x.order, id)
	return true
}

// outstanding returns the targets still pending from this run's sources over
// relationships that may be expanded.
func (x *expansion) outstanding() []string {
	return x.store.Outstanding(graph.OutstandingOptions{
		ExcludeContainerEdges: true,
		Sources:               x.sources,
	})
}

// next computes a fresh snapshot of the identifiers for the following pass.
func (x *expansion) next() []string {
	var ids []string
	for _, id := range x.outstanding() {
		if x.request(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// settle composes the result from every identifier ever requested.
func (x *expansion) settle() *MultiObjectResult {
	res := NewMultiObjectResult()
	for _, id := range x.order {
		if obj, ok := x.store.Get(id); ok {
			res.Objects[id] = obj
		} else {
			res.Failed[id] = struct{}{}
		}
	}
	return res
}

// expand fetches roots and everything transitively reachable from them over
// non-container relationships, skipping identifiers already in the store.
//
// On error the partial result is still returned: whatever arrived is in Objects,
// and every requested or outstanding identifier that did not arrive is in Failed.
func (c *Client) expand(ctx context.Context, op string, roots []string) (*MultiObjectResult, error) {
	x := newExpansion(c.store)

	var pass []string
	for _, id := range roots {
		if id == "" || !x.request(id) {
			continue
		}
		if _, ok := c.store.Get(id); ok {
			x.sources[id] = struct{}{}
		} else {
			pass = append(pass, id)
		}
	}
	pass = append(pass, x.next()...)

	var errs []error
	for len(pass) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, gridsync.FromRPCError(op, err))
			break
		}

		x.passes++
		report := c.fetcher.fetch(ctx, op, pass)
		for id := range report.received {
			x.sources[id] = struct{}{}
			// Objects streamed ahead of their own request are never requested later.
			x.request(id)
		}
		if len(report.errs) > 0 {
			errs = append(errs, report.errs...)
			break
		}

		pass = x.next()
	}

	c.metrics.expandPasses.Record(ctx, int64(x.passes))

	res := x.settle()
	if len(errs) > 0 {
		for _, id := range x.outstanding() {
			res.Failed[id] = struct{}{}
		}
	}
	if len(res.Failed) > 0 {
		c.metrics.identifiersFailed.Add(ctx, int64(len(res.Failed)))
	}

	c.logger.DebugContext(ctx, "expansion settled",
		"operation", op,
		"roots", len(roots),
		"passes", x.passes,
		"requested", len(x.order),
		"objects", len(res.Objects),
		"failed", len(res.Failed))

	return res, joinErrors(errs)
}
