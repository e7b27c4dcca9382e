package cim

// Point is one coordinate of a Location.
type Point struct {
	X float64
	Y float64
}

// Location is the geographic position of a piece of equipment.
type Location struct {
	Identity
	Address string
	Points  []Point
}

func NewLocation(mrid string) *Location { return &Location{Identity: Identity{ID: mrid}} }
func (*Location) Kind() Kind            { return KindLocation }

// Terminal is a connection point of a ConductingEquipment.
type Terminal struct {
	Identity
	SequenceNumber      int
	Phases              string
	ConductingEquipment ConductingEquipment
	ConnectivityNode    *ConnectivityNode
}

func NewTerminal(mrid string) *Terminal { return &Terminal{Identity: Identity{ID: mrid}} }
func (*Terminal) Kind() Kind            { return KindTerminal }

// ConnectivityNode joins terminals that are electrically connected with zero impedance.
type ConnectivityNode struct {
	Identity
	Terminals []*Terminal
}

func NewConnectivityNode(mrid string) *ConnectivityNode {
	return &ConnectivityNode{Identity: Identity{ID: mrid}}
}
func (*ConnectivityNode) Kind() Kind { return KindConnectivityNode }

// AddTerminal appends t unless already attached.
func (n *ConnectivityNode) AddTerminal(t *Terminal) {
	n.Terminals = appendUnique(n.Terminals, t)
}
