package cim

// Loop is a set of circuits and substations forming a sub-transmission loop.
type Loop struct {
	Identity
	Circuits              map[string]*Circuit
	Substations           map[string]*Substation
	EnergizingSubstations map[string]*Substation
}

func NewLoop(mrid string) *Loop {
	return &Loop{
		Identity:              Identity{ID: mrid},
		Circuits:              make(map[string]*Circuit),
		Substations:           make(map[string]*Substation),
		EnergizingSubstations: make(map[string]*Substation),
	}
}
func (*Loop) Kind() Kind { return KindLoop }

// ContainerIDs returns the mRIDs of every container associated with the loop,
// de-duplicated. Energizing substations that are also loop substations appear once.
func (l *Loop) ContainerIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for id := range l.Circuits {
		add(id)
	}
	for id := range l.Substations {
		add(id)
	}
	for id := range l.EnergizingSubstations {
		add(id)
	}
	return ids
}

type GeographicalRegion struct {
	Identity
	SubGeographicalRegions map[string]*SubGeographicalRegion
}

func NewGeographicalRegion(mrid string) *GeographicalRegion {
	return &GeographicalRegion{
		Identity:               Identity{ID: mrid},
		SubGeographicalRegions: make(map[string]*SubGeographicalRegion),
	}
}
func (*GeographicalRegion) Kind() Kind { return KindGeographicalRegion }

type SubGeographicalRegion struct {
	Identity
	GeographicalRegion *GeographicalRegion
	Substations        map[string]*Substation
}

func NewSubGeographicalRegion(mrid string) *SubGeographicalRegion {
	return &SubGeographicalRegion{
		Identity:    Identity{ID: mrid},
		Substations: make(map[string]*Substation),
	}
}
func (*SubGeographicalRegion) Kind() Kind { return KindSubGeographicalRegion }
