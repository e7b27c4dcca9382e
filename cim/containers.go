package cim

type Site struct {
	ContainerFields
}

func NewSite(mrid string) *Site { return &Site{ContainerFields: newContainerFields(mrid)} }
func (*Site) Kind() Kind        { return KindSite }

type Substation struct {
	ContainerFields
	SubGeographicalRegion  *SubGeographicalRegion
	NormalEnergizedFeeders map[string]*Feeder
	Loops                  map[string]*Loop
	Circuits               map[string]*Circuit
}

func NewSubstation(mrid string) *Substation {
	return &Substation{
		ContainerFields:        newContainerFields(mrid),
		NormalEnergizedFeeders: make(map[string]*Feeder),
		Loops:                  make(map[string]*Loop),
		Circuits:               make(map[string]*Circuit),
	}
}
func (*Substation) Kind() Kind { return KindSubstation }

// Feeder is a medium-voltage container energized from a substation.
type Feeder struct {
	ContainerFields
	NormalHeadTerminal         *Terminal
	NormalEnergizingSubstation *Substation
	NormalEnergizedLvFeeders   map[string]*LvFeeder
}

func NewFeeder(mrid string) *Feeder {
	return &Feeder{
		ContainerFields:          newContainerFields(mrid),
		NormalEnergizedLvFeeders: make(map[string]*LvFeeder),
	}
}
func (*Feeder) Kind() Kind { return KindFeeder }

// LvFeeder is a low-voltage container energized from one or more feeders.
type LvFeeder struct {
	ContainerFields
	NormalHeadTerminal      *Terminal
	NormalEnergizingFeeders map[string]*Feeder
}

func NewLvFeeder(mrid string) *LvFeeder {
	return &LvFeeder{
		ContainerFields:         newContainerFields(mrid),
		NormalEnergizingFeeders: make(map[string]*Feeder),
	}
}
func (*LvFeeder) Kind() Kind { return KindLvFeeder }

// Circuit is a sub-transmission line container that may belong to a Loop.
type Circuit struct {
	ContainerFields
	Loop           *Loop
	EndTerminals   []*Terminal
	EndSubstations map[string]*Substation
}

func NewCircuit(mrid string) *Circuit {
	return &Circuit{
		ContainerFields: newContainerFields(mrid),
		EndSubstations:  make(map[string]*Substation),
	}
}
func (*Circuit) Kind() Kind { return KindCircuit }

// AddEndTerminal appends t unless already attached.
func (c *Circuit) AddEndTerminal(t *Terminal) {
	c.EndTerminals = appendUnique(c.EndTerminals, t)
}
