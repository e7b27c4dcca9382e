package wire

import (
	"fmt"

	"github.com/zero-day-ai/gridsync/cim"
	"google.golang.org/protobuf/types/known/structpb"
)

// HierarchyOptions toggles each aggregate kind of a hierarchy request independently.
type HierarchyOptions struct {
	GeographicalRegions    bool `json:"geographical_regions" yaml:"geographical_regions"`
	SubGeographicalRegions bool `json:"sub_geographical_regions" yaml:"sub_geographical_regions"`
	Substations            bool `json:"substations" yaml:"substations"`
	Feeders                bool `json:"feeders" yaml:"feeders"`
	LvFeeders              bool `json:"lv_feeders" yaml:"lv_feeders"`
	Circuits               bool `json:"circuits" yaml:"circuits"`
	Loops                  bool `json:"loops" yaml:"loops"`
}

// FullHierarchy includes every aggregate kind.
func FullHierarchy() HierarchyOptions {
	return HierarchyOptions{
		GeographicalRegions:    true,
		SubGeographicalRegions: true,
		Substations:            true,
		Feeders:                true,
		LvFeeders:              true,
		Circuits:               true,
		Loops:                  true,
	}
}

// Kinds returns the cim kinds selected by the options.
func (o HierarchyOptions) Kinds() []cim.Kind {
	var kinds []cim.Kind
	for _, sel := range []struct {
		on   bool
		kind cim.Kind
	}{
		{o.GeographicalRegions, cim.KindGeographicalRegion},
		{o.SubGeographicalRegions, cim.KindSubGeographicalRegion},
		{o.Substations, cim.KindSubstation},
		{o.Feeders, cim.KindFeeder},
		{o.LvFeeders, cim.KindLvFeeder},
		{o.Circuits, cim.KindCircuit},
		{o.Loops, cim.KindLoop},
	} {
		if sel.on {
			kinds = append(kinds, sel.kind)
		}
	}
	return kinds
}

// ToStruct encodes the options as the hierarchy request message.
func (o HierarchyOptions) ToStruct() (*structpb.Struct, error) {
	kinds := o.Kinds()
	list := make([]any, len(kinds))
	for i, k := range kinds {
		list[i] = string(k)
	}
	return structpb.NewStruct(map[string]any{"kinds": list})
}

// HierarchyOptionsFromStruct is the server-side inverse of ToStruct.
func HierarchyOptionsFromStruct(s *structpb.Struct) (HierarchyOptions, error) {
	var o HierarchyOptions
	raw, _ := s.AsMap()["kinds"].([]any)
	for _, entry := range raw {
		name, _ := entry.(string)
		switch cim.Kind(name) {
		case cim.KindGeographicalRegion:
			o.GeographicalRegions = true
		case cim.KindSubGeographicalRegion:
			o.SubGeographicalRegions = true
		case cim.KindSubstation:
			o.Substations = true
		case cim.KindFeeder:
			o.Feeders = true
		case cim.KindLvFeeder:
			o.LvFeeders = true
		case cim.KindCircuit:
			o.Circuits = true
		case cim.KindLoop:
			o.Loops = true
		default:
			return HierarchyOptions{}, fmt.Errorf("wire: %q is not a hierarchy kind", name)
		}
	}
	return o, nil
}

// Hierarchy is the aggregate snapshot returned by a hierarchy request.
type Hierarchy struct {
	Objects []*Object
}

// ToStruct encodes the snapshot.
func (h *Hierarchy) ToStruct() (*structpb.Struct, error) {
	list := make([]any, 0, len(h.Objects))
	for _, o := range h.Objects {
		s, err := o.ToStruct()
		if err != nil {
			return nil, err
		}
		list = append(list, s.AsMap())
	}
	return structpb.NewStruct(map[string]any{"objects": list})
}

// HierarchyFromStruct decodes a snapshot, validating every object.
func HierarchyFromStruct(s *structpb.Struct) (*Hierarchy, error) {
	h := &Hierarchy{}
	raw, ok := s.GetFields()["objects"]
	if !ok {
		return h, nil
	}
	for _, v := range raw.GetListValue().GetValues() {
		obj, err := ObjectFromStruct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		h.Objects = append(h.Objects, obj)
	}
	return h, nil
}
