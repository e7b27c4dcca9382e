package cim

// AcLineSegment is a single conductor span.
type AcLineSegment struct {
	ConductingFields
	// Length in metres.
	Length float64
}

func NewAcLineSegment(mrid string) *AcLineSegment {
	return &AcLineSegment{ConductingFields: newConductingFields(mrid)}
}
func (*AcLineSegment) Kind() Kind { return KindAcLineSegment }

// Breaker is a switch capable of interrupting fault current.
type Breaker struct {
	ConductingFields
	NormalOpen bool
	Open       bool
}

func NewBreaker(mrid string) *Breaker { return &Breaker{ConductingFields: newConductingFields(mrid)} }
func (*Breaker) Kind() Kind           { return KindBreaker }

// Disconnector is a switch that isolates but does not interrupt load.
type Disconnector struct {
	ConductingFields
	NormalOpen bool
	Open       bool
}

func NewDisconnector(mrid string) *Disconnector {
	return &Disconnector{ConductingFields: newConductingFields(mrid)}
}
func (*Disconnector) Kind() Kind { return KindDisconnector }

type Junction struct {
	ConductingFields
}

func NewJunction(mrid string) *Junction { return &Junction{ConductingFields: newConductingFields(mrid)} }
func (*Junction) Kind() Kind            { return KindJunction }

// EnergySource is where energy enters the modelled network.
type EnergySource struct {
	ConductingFields
	VoltageMagnitude float64
}

func NewEnergySource(mrid string) *EnergySource {
	return &EnergySource{ConductingFields: newConductingFields(mrid)}
}
func (*EnergySource) Kind() Kind { return KindEnergySource }

// EnergyConsumer is a load point.
type EnergyConsumer struct {
	ConductingFields
	CustomerCount int
	// P is the active power in watts.
	P float64
}

func NewEnergyConsumer(mrid string) *EnergyConsumer {
	return &EnergyConsumer{ConductingFields: newConductingFields(mrid)}
}
func (*EnergyConsumer) Kind() Kind { return KindEnergyConsumer }

type PowerTransformer struct {
	ConductingFields
	VectorGroup string
	Ends        []*PowerTransformerEnd
}

func NewPowerTransformer(mrid string) *PowerTransformer {
	return &PowerTransformer{ConductingFields: newConductingFields(mrid)}
}
func (*PowerTransformer) Kind() Kind { return KindPowerTransformer }

// AddEnd appends end unless already attached, keeping ends ordered by EndNumber.
func (p *PowerTransformer) AddEnd(end *PowerTransformerEnd) {
	for _, existing := range p.Ends {
		if existing.ID == end.ID {
			return
		}
	}
	i := len(p.Ends)
	for i > 0 && p.Ends[i-1].EndNumber > end.EndNumber {
		i--
	}
	p.Ends = append(p.Ends, nil)
	copy(p.Ends[i+1:], p.Ends[i:])
	p.Ends[i] = end
}

// PowerTransformerEnd is one winding of a PowerTransformer.
type PowerTransformerEnd struct {
	Identity
	EndNumber        int
	RatedU           int
	PowerTransformer *PowerTransformer
	Terminal         *Terminal
}

func NewPowerTransformerEnd(mrid string) *PowerTransformerEnd {
	return &PowerTransformerEnd{Identity: Identity{ID: mrid}}
}
func (*PowerTransformerEnd) Kind() Kind { return KindPowerTransformerEnd }
