package wire

import (
	"sort"

	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
)

// Encode is the inverse of Decode: attributes become fields and every populated
// relationship field becomes a reference. Many-valued relationships are emitted in
// mRID order so encodings are stable.
func Encode(obj cim.IdentifiedObject) *Object {
	o := &Object{MRID: obj.MRID(), Kind: obj.Kind(), Fields: map[string]any{}}
	id := obj.Ident()
	if id.Name != "" {
		o.Fields["name"] = id.Name
	}
	if id.Description != "" {
		o.Fields["description"] = id.Description
	}

	if e, ok := obj.(cim.Equipment); ok {
		eq := e.Equip()
		o.Fields["inService"] = eq.InService
		o.Fields["normallyInService"] = eq.NormallyInService
		o.addRefs(graph.EquipmentContainers, keysOf(eq.Containers))
		o.addRefs(graph.EquipmentCurrentContainers, keysOf(eq.CurrentContainers))
		if eq.Location != nil {
			o.addRef(graph.EquipmentLocation, eq.Location.ID)
		}
	}
	if ce, ok := obj.(cim.ConductingEquipment); ok {
		c := ce.Conducting()
		if c.BaseVoltage != 0 {
			o.Fields["baseVoltage"] = c.BaseVoltage
		}
		for _, t := range c.Terminals {
			o.addRef(graph.ConductingEquipmentTerminals, t.ID)
		}
	}

	switch v := obj.(type) {
	case *cim.Location:
		if v.Address != "" {
			o.Fields["address"] = v.Address
		}
		if len(v.Points) > 0 {
			points := make([]any, 0, len(v.Points))
			for _, p := range v.Points {
				points = append(points, map[string]any{"x": p.X, "y": p.Y})
			}
			o.Fields["points"] = points
		}
	case *cim.Terminal:
		o.Fields["sequenceNumber"] = v.SequenceNumber
		if v.Phases != "" {
			o.Fields["phases"] = v.Phases
		}
		if v.ConductingEquipment != nil {
			o.addRef(graph.TerminalConductingEquipment, v.ConductingEquipment.MRID())
		}
		if v.ConnectivityNode != nil {
			o.addRef(graph.TerminalConnectivityNode, v.ConnectivityNode.ID)
		}
	case *cim.AcLineSegment:
		o.Fields["length"] = v.Length
	case *cim.Breaker:
		o.Fields["normalOpen"] = v.NormalOpen
		o.Fields["open"] = v.Open
	case *cim.Disconnector:
		o.Fields["normalOpen"] = v.NormalOpen
		o.Fields["open"] = v.Open
	case *cim.EnergySource:
		o.Fields["voltageMagnitude"] = v.VoltageMagnitude
	case *cim.EnergyConsumer:
		o.Fields["customerCount"] = v.CustomerCount
		o.Fields["p"] = v.P
	case *cim.PowerTransformer:
		if v.VectorGroup != "" {
			o.Fields["vectorGroup"] = v.VectorGroup
		}
		for _, end := range v.Ends {
			o.addRef(graph.PowerTransformerEnds, end.ID)
		}
	case *cim.PowerTransformerEnd:
		o.Fields["endNumber"] = v.EndNumber
		o.Fields["ratedU"] = v.RatedU
		if v.PowerTransformer != nil {
			o.addRef(graph.PowerTransformerEndTransformer, v.PowerTransformer.ID)
		}
		if v.Terminal != nil {
			o.addRef(graph.PowerTransformerEndTerminal, v.Terminal.ID)
		}
	case *cim.Substation:
		if v.SubGeographicalRegion != nil {
			o.addRef(graph.SubstationSubGeographicalRegion, v.SubGeographicalRegion.ID)
		}
		o.addRefs(graph.SubstationNormalEnergizedFeeders, keysOf(v.NormalEnergizedFeeders))
		o.addRefs(graph.SubstationLoops, keysOf(v.Loops))
		o.addRefs(graph.SubstationCircuits, keysOf(v.Circuits))
	case *cim.Feeder:
		if v.NormalHeadTerminal != nil {
			o.addRef(graph.FeederNormalHeadTerminal, v.NormalHeadTerminal.ID)
		}
		if v.NormalEnergizingSubstation != nil {
			o.addRef(graph.FeederNormalEnergizingSubstation, v.NormalEnergizingSubstation.ID)
		}
		o.addRefs(graph.FeederNormalEnergizedLvFeeders, keysOf(v.NormalEnergizedLvFeeders))
	case *cim.LvFeeder:
		if v.NormalHeadTerminal != nil {
			o.addRef(graph.LvFeederNormalHeadTerminal, v.NormalHeadTerminal.ID)
		}
		o.addRefs(graph.LvFeederNormalEnergizingFeeders, keysOf(v.NormalEnergizingFeeders))
	case *cim.Circuit:
		if v.Loop != nil {
			o.addRef(graph.CircuitLoop, v.Loop.ID)
		}
		for _, t := range v.EndTerminals {
			o.addRef(graph.CircuitEndTerminals, t.ID)
		}
		o.addRefs(graph.CircuitEndSubstations, keysOf(v.EndSubstations))
	case *cim.Loop:
		o.addRefs(graph.LoopCircuits, keysOf(v.Circuits))
		o.addRefs(graph.LoopSubstations, keysOf(v.Substations))
		o.addRefs(graph.LoopEnergizingSubstations, keysOf(v.EnergizingSubstations))
	case *cim.GeographicalRegion:
		o.addRefs(graph.GeographicalRegionSubRegions, keysOf(v.SubGeographicalRegions))
	case *cim.SubGeographicalRegion:
		if v.GeographicalRegion != nil {
			o.addRef(graph.SubGeographicalRegionRegion, v.GeographicalRegion.ID)
		}
		o.addRefs(graph.SubGeographicalRegionSubstations, keysOf(v.Substations))
	}
	return o
}

func (o *Object) addRef(relationship, target string) {
	o.References = append(o.References, graph.Reference{Relationship: relationship, TargetID: target})
}

func (o *Object) addRefs(relationship string, targets []string) {
	for _, target := range targets {
		o.addRef(relationship, target)
	}
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
