package graph

import (
	"fmt"
	"strings"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
)

// Reference is an encoded, not yet resolved, relationship of an object:
// the relationship name and the mRID at the far end.
type Reference struct {
	Relationship string `json:"relationship" yaml:"relationship"`
	TargetID     string `json:"target" yaml:"target"`
}

// Resolver describes one named relationship between two kinds. Resolvers are
// immutable; Schema.WithContainerEdges returns modified copies.
type Resolver struct {
	name          string
	target        string
	containerEdge bool
	required      bool
	resolve       func(source, target cim.IdentifiedObject) error
}

// Name returns the relationship name, e.g. "Terminal.conductingEquipment".
func (r *Resolver) Name() string { return r.name }

// Source returns the source side of the relationship name.
func (r *Resolver) Source() string {
	source, _, _ := strings.Cut(r.name, ".")
	return source
}

// Target describes the kind (or role) at the far end of the relationship.
func (r *Resolver) Target() string { return r.target }

// IsContainerEdge reports whether automatic expansion across this relationship is suppressed.
func (r *Resolver) IsContainerEdge() bool { return r.containerEdge }

// IsRequired reports whether a persistence load must resolve this relationship.
func (r *Resolver) IsRequired() bool { return r.required }

// Resolve records the link on source (and on target for bidirectional relationships).
// It fails with a type mismatch when either side is not of the expected kind.
func (r *Resolver) Resolve(source, target cim.IdentifiedObject) error {
	return r.resolve(source, target)
}

func (r *Resolver) withContainerEdge(edge bool) *Resolver {
	clone := *r
	clone.containerEdge = edge
	return &clone
}

type linkOption func(*Resolver)

func containerEdge() linkOption { return func(r *Resolver) { r.containerEdge = true } }
func required() linkOption      { return func(r *Resolver) { r.required = true } }

// link builds a Resolver from typed forward and reverse setters. reverse may be nil
// for one-directional relationships.
func link[S, T cim.IdentifiedObject](name, target string, forward func(S, T), reverse func(T, S), opts ...linkOption) *Resolver {
	r := &Resolver{name: name, target: target}
	sourceLabel, _, _ := strings.Cut(name, ".")
	r.resolve = func(source, to cim.IdentifiedObject) error {
		src, ok := source.(S)
		if !ok {
			return mismatch(name, sourceLabel, source)
		}
		tgt, ok := to.(T)
		if !ok {
			return mismatch(name, target, to)
		}
		forward(src, tgt)
		if reverse != nil {
			reverse(tgt, src)
		}
		return nil
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func mismatch(relationship, expected string, got cim.IdentifiedObject) error {
	return gridsync.NewTypeMismatchError("Resolver.Resolve",
		fmt.Errorf("%w: %s expects %s, got %s %q", gridsync.ErrTypeMismatch, relationship, expected, got.Kind(), got.MRID())).
		WithContext(map[string]any{"relationship": relationship, "mrid": got.MRID()})
}
