package client

import (
	"context"
	"sort"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/wire"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// NetworkHierarchy is the aggregate-level view of a network, keyed by mRID.
type NetworkHierarchy struct {
	GeographicalRegions    map[string]*cim.GeographicalRegion
	SubGeographicalRegions map[string]*cim.SubGeographicalRegion
	Substations            map[string]*cim.Substation
	Feeders                map[string]*cim.Feeder
	LvFeeders              map[string]*cim.LvFeeder
	Circuits               map[string]*cim.Circuit
	Loops                  map[string]*cim.Loop
}

// NewNetworkHierarchy creates an empty hierarchy.
func NewNetworkHierarchy() *NetworkHierarchy {
	return &NetworkHierarchy{
		GeographicalRegions:    make(map[string]*cim.GeographicalRegion),
		SubGeographicalRegions: make(map[string]*cim.SubGeographicalRegion),
		Substations:            make(map[string]*cim.Substation),
		Feeders:                make(map[string]*cim.Feeder),
		LvFeeders:              make(map[string]*cim.LvFeeder),
		Circuits:               make(map[string]*cim.Circuit),
		Loops:                  make(map[string]*cim.Loop),
	}
}

func (h *NetworkHierarchy) add(obj cim.IdentifiedObject) {
	switch v := obj.(type) {
	case *cim.GeographicalRegion:
		h.GeographicalRegions[v.ID] = v
	case *cim.SubGeographicalRegion:
		h.SubGeographicalRegions[v.ID] = v
	case *cim.Substation:
		h.Substations[v.ID] = v
	case *cim.Feeder:
		h.Feeders[v.ID] = v
	case *cim.LvFeeder:
		h.LvFeeders[v.ID] = v
	case *cim.Circuit:
		h.Circuits[v.ID] = v
	case *cim.Loop:
		h.Loops[v.ID] = v
	}
}

// ContainerIDs returns the mRIDs of every equipment container in the hierarchy,
// sorted, ready to cascade into GetEquipmentForContainers.
func (h *NetworkHierarchy) ContainerIDs() []string {
	var ids []string
	for id := range h.Substations {
		ids = append(ids, id)
	}
	for id := range h.Feeders {
		ids = append(ids, id)
	}
	for id := range h.LvFeeders {
		ids = append(ids, id)
	}
	for id := range h.Circuits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// hierarchy fetches the aggregate snapshot, stores every object in it, then
// expands from those objects.
func (c *Client) hierarchy(ctx context.Context, op string, opts wire.HierarchyOptions) (*MultiObjectResult, *NetworkHierarchy, error) {
	c.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("rpc", "FetchHierarchy")))

	snapshot, err := c.transport.FetchHierarchy(ctx, opts)
	if err != nil {
		cause := gridsync.FromRPCError(op, err)
		c.logger.WarnContext(ctx, "hierarchy fetch failed", "operation", op, "error", cause)
		return NewMultiObjectResult(), NewNetworkHierarchy(), cause
	}

	ids := make([]string, 0, len(snapshot.Objects))
	var errs []error
	for _, msg := range snapshot.Objects {
		c.metrics.objectsReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(msg.Kind))))
		if err := c.fetcher.ingest(ctx, op, msg); err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, msg.MRID)
	}
	if len(errs) > 0 {
		return NewMultiObjectResult(), NewNetworkHierarchy(), joinErrors(errs)
	}

	res, err := c.expand(ctx, op, ids)

	h := NewNetworkHierarchy()
	for _, obj := range res.Objects {
		h.add(obj)
	}
	return res, h, err
}
