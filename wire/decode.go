package wire

import (
	"fmt"

	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
)

// Decode builds the cim object an Object describes. Relationship fields are left
// empty; the returned references are handed to graph.Store.AddWithReferences.
func Decode(o *Object) (cim.IdentifiedObject, []graph.Reference, error) {
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	obj, err := cim.New(o.Kind, o.MRID)
	if err != nil {
		return nil, nil, err
	}

	f := o.Fields
	if f == nil {
		f = map[string]any{}
	}
	id := obj.Ident()
	id.Name = stringField(f, "name")
	id.Description = stringField(f, "description")

	if e, ok := obj.(cim.Equipment); ok {
		eq := e.Equip()
		eq.InService = boolField(f, "inService", true)
		eq.NormallyInService = boolField(f, "normallyInService", true)
	}
	if ce, ok := obj.(cim.ConductingEquipment); ok {
		ce.Conducting().BaseVoltage = intField(f, "baseVoltage")
	}

	switch v := obj.(type) {
	case *cim.Location:
		v.Address = stringField(f, "address")
		points, err := decodePoints(f["points"])
		if err != nil {
			return nil, nil, fmt.Errorf("wire: location %q: %w", o.MRID, err)
		}
		v.Points = points
	case *cim.Terminal:
		v.SequenceNumber = intField(f, "sequenceNumber")
		v.Phases = stringField(f, "phases")
	case *cim.AcLineSegment:
		v.Length = numberField(f, "length")
	case *cim.Breaker:
		v.NormalOpen = boolField(f, "normalOpen", false)
		v.Open = boolField(f, "open", v.NormalOpen)
	case *cim.Disconnector:
		v.NormalOpen = boolField(f, "normalOpen", false)
		v.Open = boolField(f, "open", v.NormalOpen)
	case *cim.EnergySource:
		v.VoltageMagnitude = numberField(f, "voltageMagnitude")
	case *cim.EnergyConsumer:
		v.CustomerCount = intField(f, "customerCount")
		v.P = numberField(f, "p")
	case *cim.PowerTransformer:
		v.VectorGroup = stringField(f, "vectorGroup")
	case *cim.PowerTransformerEnd:
		v.EndNumber = intField(f, "endNumber")
		v.RatedU = intField(f, "ratedU")
	}

	refs := make([]graph.Reference, len(o.References))
	copy(refs, o.References)
	return obj, refs, nil
}

func decodePoints(raw any) ([]cim.Point, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("points must be a list")
	}
	points := make([]cim.Point, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("point must be an object with x and y")
		}
		points = append(points, cim.Point{X: numberField(m, "x"), Y: numberField(m, "y")})
	}
	return points, nil
}
