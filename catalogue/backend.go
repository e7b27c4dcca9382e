package catalogue

import (
	"context"

	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/wire"
)

// Backend stores catalogue objects and answers the lookups the server needs.
type Backend interface {
	// Put stores objects, replacing any previous version with the same mRID and
	// updating the membership and kind indexes accordingly.
	Put(ctx context.Context, objs ...*wire.Object) error

	// Get returns the object stored under mrid, or nil if there is none.
	Get(ctx context.Context, mrid string) (*wire.Object, error)

	// Members returns the mRIDs of the objects that are members of containerID in
	// the given state (NORMAL or CURRENT), in mRID order.
	Members(ctx context.Context, containerID string, state wire.NetworkState) ([]string, error)

	// OfKinds returns every stored object of one of the given kinds, in mRID order.
	OfKinds(ctx context.Context, kinds ...cim.Kind) ([]*wire.Object, error)

	// SetMetadata replaces the service metadata.
	SetMetadata(ctx context.Context, md *wire.Metadata) error

	// Metadata returns the service metadata. A backend with none set returns an
	// empty Metadata.
	Metadata(ctx context.Context) (*wire.Metadata, error)

	// Close releases any resources held by the backend.
	Close() error
}

// memberships returns the containers obj belongs to, per state.
func memberships(obj *wire.Object) map[wire.NetworkState][]string {
	return map[wire.NetworkState][]string{
		wire.NetworkStateNormal:  obj.Targets(graph.EquipmentContainers),
		wire.NetworkStateCurrent: obj.Targets(graph.EquipmentCurrentContainers),
	}
}

// states expands a requested network state into the stored states it covers.
func states(s wire.NetworkState) []wire.NetworkState {
	switch s {
	case wire.NetworkStateCurrent:
		return []wire.NetworkState{wire.NetworkStateCurrent}
	case wire.NetworkStateAll:
		return []wire.NetworkState{wire.NetworkStateNormal, wire.NetworkStateCurrent}
	default:
		return []wire.NetworkState{wire.NetworkStateNormal}
	}
}

func kindSet(kinds []cim.Kind) map[cim.Kind]struct{} {
	set := make(map[cim.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}
