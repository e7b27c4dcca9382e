package cim

// IdentifiedObject is any object in the network model. Identity is the mRID:
// two objects with the same mRID are the same entity.
type IdentifiedObject interface {
	// MRID returns the globally unique identifier.
	MRID() string

	// Kind returns the concrete kind tag.
	Kind() Kind

	// Ident returns the shared identity attributes.
	Ident() *Identity

	sealed()
}

// Equipment is an object that can be a member of an EquipmentContainer.
type Equipment interface {
	IdentifiedObject
	Equip() *EquipmentFields
}

// ConductingEquipment is Equipment that connects to the network through Terminals.
type ConductingEquipment interface {
	Equipment
	Conducting() *ConductingFields
}

// EquipmentContainer groups Equipment (substations, feeders, circuits, sites).
type EquipmentContainer interface {
	IdentifiedObject
	Members() *ContainerFields
}

// Identity holds the attributes shared by every object.
type Identity struct {
	ID          string
	Name        string
	Description string
}

func (i *Identity) MRID() string     { return i.ID }
func (i *Identity) Ident() *Identity { return i }
func (*Identity) sealed()            {}

// SameEntity reports whether a and b describe the same entity: same mRID,
// same kind and equal identity attributes. Relationship fields are ignored
// because they are filled in progressively.
func SameEntity(a, b IdentifiedObject) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	return a.Kind() == b.Kind() && *a.Ident() == *b.Ident()
}

// EquipmentFields holds the attributes and relationships shared by all Equipment.
type EquipmentFields struct {
	Identity
	InService         bool
	NormallyInService bool

	// Containers are the normal-state containers; CurrentContainers reflect the
	// current switching state.
	Containers        map[string]EquipmentContainer
	CurrentContainers map[string]EquipmentContainer
	Location          *Location
}

func newEquipmentFields(mrid string) EquipmentFields {
	return EquipmentFields{
		Identity:          Identity{ID: mrid},
		InService:         true,
		NormallyInService: true,
		Containers:        make(map[string]EquipmentContainer),
		CurrentContainers: make(map[string]EquipmentContainer),
	}
}

func (e *EquipmentFields) Equip() *EquipmentFields { return e }

// AddContainer records c as a normal container. Adding twice is a no-op.
func (e *EquipmentFields) AddContainer(c EquipmentContainer) {
	e.Containers[c.MRID()] = c
}

// AddCurrentContainer records c as a current container. Adding twice is a no-op.
func (e *EquipmentFields) AddCurrentContainer(c EquipmentContainer) {
	e.CurrentContainers[c.MRID()] = c
}

// InContainer reports whether the equipment is a normal member of the container mrid.
func (e *EquipmentFields) InContainer(mrid string) bool {
	_, ok := e.Containers[mrid]
	return ok
}

// ConductingFields holds the attributes and relationships shared by all ConductingEquipment.
type ConductingFields struct {
	EquipmentFields
	// BaseVoltage is the nominal voltage in volts.
	BaseVoltage int
	Terminals   []*Terminal
}

func newConductingFields(mrid string) ConductingFields {
	return ConductingFields{EquipmentFields: newEquipmentFields(mrid)}
}

func (c *ConductingFields) Conducting() *ConductingFields { return c }

// AddTerminal appends t unless a terminal with the same mRID is already attached.
func (c *ConductingFields) AddTerminal(t *Terminal) {
	c.Terminals = appendUnique(c.Terminals, t)
}

// Terminal returns the attached terminal with the given sequence number, or nil.
func (c *ConductingFields) Terminal(sequenceNumber int) *Terminal {
	for _, t := range c.Terminals {
		if t.SequenceNumber == sequenceNumber {
			return t
		}
	}
	return nil
}

// ContainerFields holds the membership maps shared by all EquipmentContainers.
type ContainerFields struct {
	Identity
	Equipment        map[string]Equipment
	CurrentEquipment map[string]Equipment
}

func newContainerFields(mrid string) ContainerFields {
	return ContainerFields{
		Identity:         Identity{ID: mrid},
		Equipment:        make(map[string]Equipment),
		CurrentEquipment: make(map[string]Equipment),
	}
}

func (c *ContainerFields) Members() *ContainerFields { return c }

// AddEquipment records e as a normal member. Adding twice is a no-op.
func (c *ContainerFields) AddEquipment(e Equipment) {
	c.Equipment[e.MRID()] = e
}

// AddCurrentEquipment records e as a current member. Adding twice is a no-op.
func (c *ContainerFields) AddCurrentEquipment(e Equipment) {
	c.CurrentEquipment[e.MRID()] = e
}

func appendUnique[T IdentifiedObject](list []T, v T) []T {
	for _, existing := range list {
		if existing.MRID() == v.MRID() {
			return list
		}
	}
	return append(list, v)
}
