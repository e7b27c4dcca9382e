package graph

import "github.com/zero-day-ai/gridsync/cim"

// Relationship names. The prefix is the source role, the suffix the field on it.
const (
	TerminalConductingEquipment      = "Terminal.conductingEquipment"
	TerminalConnectivityNode         = "Terminal.connectivityNode"
	ConductingEquipmentTerminals     = "ConductingEquipment.terminals"
	EquipmentContainers              = "Equipment.equipmentContainers"
	EquipmentCurrentContainers       = "Equipment.currentContainers"
	EquipmentLocation                = "Equipment.location"
	PowerTransformerEnds             = "PowerTransformer.ends"
	PowerTransformerEndTransformer   = "PowerTransformerEnd.powerTransformer"
	PowerTransformerEndTerminal      = "PowerTransformerEnd.terminal"
	SubstationSubGeographicalRegion  = "Substation.subGeographicalRegion"
	SubstationNormalEnergizedFeeders = "Substation.normalEnergizedFeeders"
	SubstationLoops                  = "Substation.loops"
	SubstationCircuits               = "Substation.circuits"
	FeederNormalHeadTerminal         = "Feeder.normalHeadTerminal"
	FeederNormalEnergizingSubstation = "Feeder.normalEnergizingSubstation"
	FeederNormalEnergizedLvFeeders   = "Feeder.normalEnergizedLvFeeders"
	LvFeederNormalHeadTerminal       = "LvFeeder.normalHeadTerminal"
	LvFeederNormalEnergizingFeeders  = "LvFeeder.normalEnergizingFeeders"
	CircuitLoop                      = "Circuit.loop"
	CircuitEndTerminals              = "Circuit.endTerminals"
	CircuitEndSubstations            = "Circuit.endSubstations"
	LoopCircuits                     = "Loop.circuits"
	LoopSubstations                  = "Loop.substations"
	LoopEnergizingSubstations        = "Loop.energizingSubstations"
	SubGeographicalRegionRegion      = "SubGeographicalRegion.geographicalRegion"
	SubGeographicalRegionSubstations = "SubGeographicalRegion.substations"
	GeographicalRegionSubRegions     = "GeographicalRegion.subGeographicalRegions"
)

// defaultResolvers is the relationship table. Container edges are the
// relationships that point from a member to a container, or from a container to
// its (potentially very many) children.
func defaultResolvers() []*Resolver {
	return []*Resolver{
		link(TerminalConductingEquipment, "ConductingEquipment",
			func(t *cim.Terminal, ce cim.ConductingEquipment) { t.ConductingEquipment = ce },
			func(ce cim.ConductingEquipment, t *cim.Terminal) { ce.Conducting().AddTerminal(t) },
			required()),
		link(TerminalConnectivityNode, string(cim.KindConnectivityNode),
			func(t *cim.Terminal, cn *cim.ConnectivityNode) { t.ConnectivityNode = cn },
			func(cn *cim.ConnectivityNode, t *cim.Terminal) { cn.AddTerminal(t) }),
		link(ConductingEquipmentTerminals, string(cim.KindTerminal),
			func(ce cim.ConductingEquipment, t *cim.Terminal) { ce.Conducting().AddTerminal(t) },
			func(t *cim.Terminal, ce cim.ConductingEquipment) { t.ConductingEquipment = ce }),
		link(EquipmentContainers, "EquipmentContainer",
			func(e cim.Equipment, c cim.EquipmentContainer) { e.Equip().AddContainer(c) },
			func(c cim.EquipmentContainer, e cim.Equipment) { c.Members().AddEquipment(e) },
			containerEdge()),
		link(EquipmentCurrentContainers, "EquipmentContainer",
			func(e cim.Equipment, c cim.EquipmentContainer) { e.Equip().AddCurrentContainer(c) },
			func(c cim.EquipmentContainer, e cim.Equipment) { c.Members().AddCurrentEquipment(e) },
			containerEdge()),
		link(EquipmentLocation, string(cim.KindLocation),
			func(e cim.Equipment, l *cim.Location) { e.Equip().Location = l },
			nil),
		link(PowerTransformerEnds, string(cim.KindPowerTransformerEnd),
			func(pt *cim.PowerTransformer, end *cim.PowerTransformerEnd) { pt.AddEnd(end) },
			func(end *cim.PowerTransformerEnd, pt *cim.PowerTransformer) { end.PowerTransformer = pt }),
		link(PowerTransformerEndTransformer, string(cim.KindPowerTransformer),
			func(end *cim.PowerTransformerEnd, pt *cim.PowerTransformer) { end.PowerTransformer = pt },
			func(pt *cim.PowerTransformer, end *cim.PowerTransformerEnd) { pt.AddEnd(end) },
			required()),
		link(PowerTransformerEndTerminal, string(cim.KindTerminal),
			func(end *cim.PowerTransformerEnd, t *cim.Terminal) { end.Terminal = t },
			nil),
		link(SubstationSubGeographicalRegion, string(cim.KindSubGeographicalRegion),
			func(s *cim.Substation, r *cim.SubGeographicalRegion) { s.SubGeographicalRegion = r },
			func(r *cim.SubGeographicalRegion, s *cim.Substation) { r.Substations[s.ID] = s }),
		link(SubstationNormalEnergizedFeeders, string(cim.KindFeeder),
			func(s *cim.Substation, f *cim.Feeder) { s.NormalEnergizedFeeders[f.ID] = f },
			func(f *cim.Feeder, s *cim.Substation) { f.NormalEnergizingSubstation = s },
			containerEdge()),
		link(SubstationLoops, string(cim.KindLoop),
			func(s *cim.Substation, l *cim.Loop) { s.Loops[l.ID] = l },
			func(l *cim.Loop, s *cim.Substation) { l.Substations[s.ID] = s },
			containerEdge()),
		link(SubstationCircuits, string(cim.KindCircuit),
			func(s *cim.Substation, c *cim.Circuit) { s.Circuits[c.ID] = c },
			func(c *cim.Circuit, s *cim.Substation) { c.EndSubstations[s.ID] = s },
			containerEdge()),
		link(FeederNormalHeadTerminal, string(cim.KindTerminal),
			func(f *cim.Feeder, t *cim.Terminal) { f.NormalHeadTerminal = t },
			nil),
		link(FeederNormalEnergizingSubstation, string(cim.KindSubstation),
			func(f *cim.Feeder, s *cim.Substation) { f.NormalEnergizingSubstation = s },
			func(s *cim.Substation, f *cim.Feeder) { s.NormalEnergizedFeeders[f.ID] = f }),
		link(FeederNormalEnergizedLvFeeders, string(cim.KindLvFeeder),
			func(f *cim.Feeder, lv *cim.LvFeeder) { f.NormalEnergizedLvFeeders[lv.ID] = lv },
			func(lv *cim.LvFeeder, f *cim.Feeder) { lv.NormalEnergizingFeeders[f.ID] = f },
			containerEdge()),
		link(LvFeederNormalHeadTerminal, string(cim.KindTerminal),
			func(lv *cim.LvFeeder, t *cim.Terminal) { lv.NormalHeadTerminal = t },
			nil),
		link(LvFeederNormalEnergizingFeeders, string(cim.KindFeeder),
			func(lv *cim.LvFeeder, f *cim.Feeder) { lv.NormalEnergizingFeeders[f.ID] = f },
			func(f *cim.Feeder, lv *cim.LvFeeder) { f.NormalEnergizedLvFeeders[lv.ID] = lv },
			containerEdge()),
		link(CircuitLoop, string(cim.KindLoop),
			func(c *cim.Circuit, l *cim.Loop) { c.Loop = l },
			func(l *cim.Loop, c *cim.Circuit) { l.Circuits[c.ID] = c }),
		link(CircuitEndTerminals, string(cim.KindTerminal),
			func(c *cim.Circuit, t *cim.Terminal) { c.AddEndTerminal(t) },
			nil),
		link(CircuitEndSubstations, string(cim.KindSubstation),
			func(c *cim.Circuit, s *cim.Substation) { c.EndSubstations[s.ID] = s },
			func(s *cim.Substation, c *cim.Circuit) { s.Circuits[c.ID] = c }),
		link(LoopCircuits, string(cim.KindCircuit),
			func(l *cim.Loop, c *cim.Circuit) { l.Circuits[c.ID] = c },
			func(c *cim.Circuit, l *cim.Loop) { c.Loop = l },
			containerEdge()),
		link(LoopSubstations, string(cim.KindSubstation),
			func(l *cim.Loop, s *cim.Substation) { l.Substations[s.ID] = s },
			func(s *cim.Substation, l *cim.Loop) { s.Loops[l.ID] = l },
			containerEdge()),
		link(LoopEnergizingSubstations, string(cim.KindSubstation),
			func(l *cim.Loop, s *cim.Substation) { l.EnergizingSubstations[s.ID] = s },
			nil,
			containerEdge()),
		link(SubGeographicalRegionRegion, string(cim.KindGeographicalRegion),
			func(r *cim.SubGeographicalRegion, g *cim.GeographicalRegion) { r.GeographicalRegion = g },
			func(g *cim.GeographicalRegion, r *cim.SubGeographicalRegion) { g.SubGeographicalRegions[r.ID] = r }),
		link(SubGeographicalRegionSubstations, string(cim.KindSubstation),
			func(r *cim.SubGeographicalRegion, s *cim.Substation) { r.Substations[s.ID] = s },
			func(s *cim.Substation, r *cim.SubGeographicalRegion) { s.SubGeographicalRegion = r },
			containerEdge()),
		link(GeographicalRegionSubRegions, string(cim.KindSubGeographicalRegion),
			func(g *cim.GeographicalRegion, r *cim.SubGeographicalRegion) { g.SubGeographicalRegions[r.ID] = r },
			func(r *cim.SubGeographicalRegion, g *cim.GeographicalRegion) { r.GeographicalRegion = g },
			containerEdge()),
	}
}
