package wire

import (
	"fmt"

	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"google.golang.org/protobuf/types/known/structpb"
)

// Object is one encoded domain object as carried on the wire.
type Object struct {
	MRID       string            `json:"mrid" yaml:"mrid"`
	Kind       cim.Kind          `json:"kind" yaml:"kind"`
	Fields     map[string]any    `json:"fields,omitempty" yaml:"fields,omitempty"`
	References []graph.Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

// Validate checks the envelope: an mRID and a known kind.
func (o *Object) Validate() error {
	if o.MRID == "" {
		return fmt.Errorf("wire: object without mrid")
	}
	if !o.Kind.Valid() {
		return fmt.Errorf("wire: object %q has unknown kind %q", o.MRID, o.Kind)
	}
	for _, ref := range o.References {
		if ref.Relationship == "" || ref.TargetID == "" {
			return fmt.Errorf("wire: object %q has an incomplete reference", o.MRID)
		}
	}
	return nil
}

// Targets returns the target mRIDs of every reference with the given relationship.
func (o *Object) Targets(relationship string) []string {
	var ids []string
	for _, ref := range o.References {
		if ref.Relationship == relationship {
			ids = append(ids, ref.TargetID)
		}
	}
	return ids
}

// ToStruct encodes the object as a protobuf Struct.
func (o *Object) ToStruct() (*structpb.Struct, error) {
	refs := make([]any, 0, len(o.References))
	for _, ref := range o.References {
		refs = append(refs, map[string]any{
			"relationship": ref.Relationship,
			"target":       ref.TargetID,
		})
	}
	fields := o.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	s, err := structpb.NewStruct(map[string]any{
		"mrid":       o.MRID,
		"kind":       string(o.Kind),
		"fields":     fields,
		"references": refs,
	})
	if err != nil {
		return nil, fmt.Errorf("wire: encode %q: %w", o.MRID, err)
	}
	return s, nil
}

// ObjectFromStruct decodes and validates a protobuf Struct produced by ToStruct.
func ObjectFromStruct(s *structpb.Struct) (*Object, error) {
	if s == nil {
		return nil, fmt.Errorf("wire: nil message")
	}
	m := s.AsMap()

	obj := &Object{
		MRID: stringField(m, "mrid"),
		Kind: cim.Kind(stringField(m, "kind")),
	}
	if fields, ok := m["fields"].(map[string]any); ok {
		obj.Fields = fields
	}
	if refs, ok := m["references"].([]any); ok {
		for _, raw := range refs {
			entry, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("wire: object %q has a malformed reference", obj.MRID)
			}
			obj.References = append(obj.References, graph.Reference{
				Relationship: stringField(entry, "relationship"),
				TargetID:     stringField(entry, "target"),
			})
		}
	}
	if err := obj.Validate(); err != nil {
		return nil, err
	}
	return obj, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func numberField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return 0
}

func intField(m map[string]any, key string) int {
	return int(numberField(m, key))
}

func boolField(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}
