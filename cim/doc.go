// Package cim defines the closed set of electrical-network object kinds that the
// gridsync client reconstructs from a catalogue service.
//
// Every object carries a globally unique, caller-supplied identifier (its mRID).
// Objects are plain mutable structs: relationship fields start empty and are filled
// in progressively by the resolvers in the graph package as the far end of each
// relationship becomes available. Nothing owns anything else; the graph.Store is the
// single owner of every object and all relationship fields are non-owning pointers.
//
// # Kinds
//
// The kinds form a sealed sum type: IdentifiedObject has an unexported marker method,
// so the only implementations are the ones declared here. Use New to construct an
// empty object for a kind decoded off the wire:
//
//	obj, err := cim.New(cim.KindBreaker, "cb-101")
//	if err != nil {
//	    return err
//	}
//	breaker := obj.(*cim.Breaker)
//
// Sub-interfaces group the kinds by role:
//   - Equipment: anything that can sit inside an EquipmentContainer
//   - ConductingEquipment: Equipment with Terminals
//   - EquipmentContainer: Site, Substation, Feeder, LvFeeder, Circuit
package cim
