package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
)

// UnresolvedReference is a pending obligation: source's relationship cannot be
// recorded until TargetID is present.
type UnresolvedReference struct {
	Source   cim.IdentifiedObject
	Resolver *Resolver
	TargetID string
}

func (u *UnresolvedReference) key() string {
	return u.Source.MRID() + "\x00" + u.Resolver.name
}

// Registry tracks UnresolvedReferences keyed by target mRID.
//
// Registry is not safe for concurrent use on its own; Store serializes access to it.
type Registry struct {
	byTarget map[string][]*UnresolvedReference
	keys     map[string]map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byTarget: make(map[string][]*UnresolvedReference),
		keys:     make(map[string]map[string]struct{}),
	}
}

// Lookup finds an already-present object by mRID.
type Lookup func(mrid string) (cim.IdentifiedObject, bool)

// DeferOrResolve resolves the relationship immediately when targetID is already
// present, otherwise queues it under targetID. It reports whether the reference
// was deferred. Deferring the same (source, relationship, target) twice queues it once.
func (r *Registry) DeferOrResolve(lookup Lookup, res *Resolver, source cim.IdentifiedObject, targetID string) (bool, error) {
	if target, ok := lookup(targetID); ok {
		return false, res.Resolve(source, target)
	}

	ref := &UnresolvedReference{Source: source, Resolver: res, TargetID: targetID}
	keys, ok := r.keys[targetID]
	if !ok {
		keys = make(map[string]struct{})
		r.keys[targetID] = keys
	}
	if _, dup := keys[ref.key()]; dup {
		return true, nil
	}
	keys[ref.key()] = struct{}{}
	r.byTarget[targetID] = append(r.byTarget[targetID], ref)
	return true, nil
}

// OnObjectAdded pops every reference queued under mrid and resolves it against obj,
// in registration order. The queue is detached before any resolver runs, so
// references registered while draining land in their own queues and are not
// executed by this pass. Resolver errors do not stop the drain; they are joined.
func (r *Registry) OnObjectAdded(mrid string, obj cim.IdentifiedObject) error {
	queue := r.byTarget[mrid]
	if len(queue) == 0 {
		return nil
	}
	delete(r.byTarget, mrid)
	delete(r.keys, mrid)

	var errs []error
	for _, ref := range queue {
		if err := ref.Resolver.Resolve(ref.Source, obj); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OutstandingOptions filters Outstanding.
type OutstandingOptions struct {
	// ExcludeContainerEdges leaves out references whose resolver is a container edge.
	ExcludeContainerEdges bool

	// Sources, when non-nil, restricts the result to references held by these source mRIDs.
	Sources map[string]struct{}
}

// Outstanding returns the distinct target mRIDs still pending, sorted.
func (r *Registry) Outstanding(opts OutstandingOptions) []string {
	var ids []string
	for target, queue := range r.byTarget {
		for _, ref := range queue {
			if opts.ExcludeContainerEdges && ref.Resolver.containerEdge {
				continue
			}
			if opts.Sources != nil {
				if _, ok := opts.Sources[ref.Source.MRID()]; !ok {
					continue
				}
			}
			ids = append(ids, target)
			break
		}
	}
	sort.Strings(ids)
	return ids
}

// Pending returns a copy of the references queued under targetID.
func (r *Registry) Pending(targetID string) []UnresolvedReference {
	queue := r.byTarget[targetID]
	out := make([]UnresolvedReference, len(queue))
	for i, ref := range queue {
		out[i] = *ref
	}
	return out
}

// Len returns the number of queued references.
func (r *Registry) Len() int {
	n := 0
	for _, queue := range r.byTarget {
		n += len(queue)
	}
	return n
}

// CheckRequired returns an UnresolvedRequiredReference error for every queued
// reference whose resolver is required, joined. It returns nil when none remain.
func (r *Registry) CheckRequired() error {
	targets := make([]string, 0, len(r.byTarget))
	for target := range r.byTarget {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	var errs []error
	for _, target := range targets {
		for _, ref := range r.byTarget[target] {
			if !ref.Resolver.required {
				continue
			}
			errs = append(errs, gridsync.NewUnresolvedRequiredReferenceError("Registry.CheckRequired",
				fmt.Errorf("%w: %s %q %s -> %q", gridsync.ErrUnresolvedRequiredReference,
					ref.Source.Kind(), ref.Source.MRID(), ref.Resolver.name, target)).
				WithContext(map[string]any{
					"source_kind":  string(ref.Source.Kind()),
					"source_id":    ref.Source.MRID(),
					"relationship": ref.Resolver.name,
					"target_id":    target,
				}))
		}
	}
	return errors.Join(errs...)
}
