// Package query filters resolved network objects with CEL expressions.
//
// An expression sees one object at a time through these variables:
//
//	mrid     string
//	kind     string
//	name     string
//	fields   map(string, dyn)          every attribute of the object's kind, zero values included
//	targets  map(string, list(string)) relationship name to target mRIDs
//
// For example:
//
//	kind == "Breaker" && fields.baseVoltage >= 11000
//	"f001" in targets["Equipment.equipmentContainers"]
package query

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/wire"
)

// Filter is a compiled boolean expression. It is safe for concurrent use.
type Filter struct {
	expr string
	prg  cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("mrid", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("targets", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
	)
}

// Compile parses and type-checks expr. Expressions that do not produce a bool are
// rejected.
func Compile(expr string) (*Filter, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, gridsync.NewValidationError("query.Compile", fmt.Errorf("compile error: %w", issues.Err())).
			WithContext(map[string]any{"expression": expr})
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, gridsync.NewValidationError("query.Compile",
			fmt.Errorf("expression %q returns %s, expected bool", expr, ast.OutputType()))
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the filter against obj. The caller must keep obj's
// relationship fields stable for the duration of the call.
func (f *Filter) Match(obj cim.IdentifiedObject) (bool, error) {
	out, _, err := f.prg.Eval(activation(obj))
	if err != nil {
		return false, gridsync.NewValidationError("query.Match", err).
			WithContext(map[string]any{"expression": f.expr, "mrid": obj.MRID()})
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not return bool", f.expr)
	}
	return matched, nil
}

// Objects returns the mRIDs of the objects in objs that match, sorted.
func (f *Filter) Objects(objs map[string]cim.IdentifiedObject) ([]string, error) {
	var ids []string
	for id, obj := range objs {
		ok, err := f.Match(obj)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the stored objects that match, in mRID order. Evaluation runs
// under the store's read lock.
func (f *Filter) Store(store *graph.Store) ([]cim.IdentifiedObject, error) {
	var (
		matched []cim.IdentifiedObject
		evalErr error
	)
	store.Range(func(obj cim.IdentifiedObject) bool {
		ok, err := f.Match(obj)
		if err != nil {
			evalErr = err
			return false
		}
		if ok {
			matched = append(matched, obj)
		}
		return true
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return matched, nil
}

func activation(obj cim.IdentifiedObject) map[string]any {
	targets := make(map[string][]string)
	for _, ref := range wire.Encode(obj).References {
		targets[ref.Relationship] = append(targets[ref.Relationship], ref.TargetID)
	}
	return map[string]any{
		"mrid":    obj.MRID(),
		"kind":    string(obj.Kind()),
		"name":    obj.Ident().Name,
		"fields":  attributes(obj),
		"targets": targets,
	}
}

// attributes lists every attribute the object's kind carries. Unlike the wire
// encoding, zero values are present so expressions never miss a key.
func attributes(obj cim.IdentifiedObject) map[string]any {
	id := obj.Ident()
	f := map[string]any{
		"name":        id.Name,
		"description": id.Description,
	}

	if e, ok := obj.(cim.Equipment); ok {
		eq := e.Equip()
		f["inService"] = eq.InService
		f["normallyInService"] = eq.NormallyInService
	}
	if ce, ok := obj.(cim.ConductingEquipment); ok {
		f["baseVoltage"] = ce.Conducting().BaseVoltage
	}

	switch v := obj.(type) {
	case *cim.Location:
		points := make([]any, 0, len(v.Points))
		for _, p := range v.Points {
			points = append(points, map[string]any{"x": p.X, "y": p.Y})
		}
		f["address"] = v.Address
		f["points"] = points
	case *cim.Terminal:
		f["sequenceNumber"] = v.SequenceNumber
		f["phases"] = v.Phases
	case *cim.AcLineSegment:
		f["length"] = v.Length
	case *cim.Breaker:
		f["normalOpen"] = v.NormalOpen
		f["open"] = v.Open
	case *cim.Disconnector:
		f["normalOpen"] = v.NormalOpen
		f["open"] = v.Open
	case *cim.EnergySource:
		f["voltageMagnitude"] = v.VoltageMagnitude
	case *cim.EnergyConsumer:
		f["customerCount"] = v.CustomerCount
		f["p"] = v.P
	case *cim.PowerTransformer:
		f["vectorGroup"] = v.VectorGroup
	case *cim.PowerTransformerEnd:
		f["endNumber"] = v.EndNumber
		f["ratedU"] = v.RatedU
	}
	return f
}
