package cim

import (
	"fmt"
	"sort"
)

// Kind tags the concrete type of an IdentifiedObject.
type Kind string

const (
	KindLocation              Kind = "Location"
	KindTerminal              Kind = "Terminal"
	KindConnectivityNode      Kind = "ConnectivityNode"
	KindAcLineSegment         Kind = "AcLineSegment"
	KindBreaker               Kind = "Breaker"
	KindDisconnector          Kind = "Disconnector"
	KindJunction              Kind = "Junction"
	KindEnergySource          Kind = "EnergySource"
	KindEnergyConsumer        Kind = "EnergyConsumer"
	KindPowerTransformer      Kind = "PowerTransformer"
	KindPowerTransformerEnd   Kind = "PowerTransformerEnd"
	KindSite                  Kind = "Site"
	KindSubstation            Kind = "Substation"
	KindFeeder                Kind = "Feeder"
	KindLvFeeder              Kind = "LvFeeder"
	KindCircuit               Kind = "Circuit"
	KindLoop                  Kind = "Loop"
	KindGeographicalRegion    Kind = "GeographicalRegion"
	KindSubGeographicalRegion Kind = "SubGeographicalRegion"
)

// factories is the closed constructor table backing New.
var factories = map[Kind]func(mrid string) IdentifiedObject{
	KindLocation:              func(id string) IdentifiedObject { return NewLocation(id) },
	KindTerminal:              func(id string) IdentifiedObject { return NewTerminal(id) },
	KindConnectivityNode:      func(id string) IdentifiedObject { return NewConnectivityNode(id) },
	KindAcLineSegment:         func(id string) IdentifiedObject { return NewAcLineSegment(id) },
	KindBreaker:               func(id string) IdentifiedObject { return NewBreaker(id) },
	KindDisconnector:          func(id string) IdentifiedObject { return NewDisconnector(id) },
	KindJunction:              func(id string) IdentifiedObject { return NewJunction(id) },
	KindEnergySource:          func(id string) IdentifiedObject { return NewEnergySource(id) },
	KindEnergyConsumer:        func(id string) IdentifiedObject { return NewEnergyConsumer(id) },
	KindPowerTransformer:      func(id string) IdentifiedObject { return NewPowerTransformer(id) },
	KindPowerTransformerEnd:   func(id string) IdentifiedObject { return NewPowerTransformerEnd(id) },
	KindSite:                  func(id string) IdentifiedObject { return NewSite(id) },
	KindSubstation:            func(id string) IdentifiedObject { return NewSubstation(id) },
	KindFeeder:                func(id string) IdentifiedObject { return NewFeeder(id) },
	KindLvFeeder:              func(id string) IdentifiedObject { return NewLvFeeder(id) },
	KindCircuit:               func(id string) IdentifiedObject { return NewCircuit(id) },
	KindLoop:                  func(id string) IdentifiedObject { return NewLoop(id) },
	KindGeographicalRegion:    func(id string) IdentifiedObject { return NewGeographicalRegion(id) },
	KindSubGeographicalRegion: func(id string) IdentifiedObject { return NewSubGeographicalRegion(id) },
}

// New constructs an empty object of the given kind.
// Returns an error if the kind is not part of the model.
func New(kind Kind, mrid string) (IdentifiedObject, error) {
	if mrid == "" {
		return nil, fmt.Errorf("cim: empty mRID for kind %s", kind)
	}
	factory, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("cim: unknown kind %q", kind)
	}
	return factory(mrid), nil
}

// Valid reports whether k names a kind in the model.
func (k Kind) Valid() bool {
	_, ok := factories[k]
	return ok
}

// IsContainer reports whether objects of kind k implement EquipmentContainer.
func (k Kind) IsContainer() bool {
	switch k {
	case KindSite, KindSubstation, KindFeeder, KindLvFeeder, KindCircuit:
		return true
	}
	return false
}

// Kinds returns every kind in the model, sorted by name.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
