package client

import (
	"context"

	"github.com/zero-day-ai/gridsync/rpc"
	"github.com/zero-day-ai/gridsync/wire"
)

// Transport is the catalogue RPC surface the client consumes. Streaming calls
// hand each message to a callback in arrival order; an error returned by the
// callback aborts the stream and is returned from the call.
type Transport interface {
	FetchByIDs(ctx context.Context, ids []string, handle func(*wire.Object) error) error
	FetchEquipmentForContainer(ctx context.Context, containerID string, opts wire.ContainerOptions, handle func(string) error) error
	FetchHierarchy(ctx context.Context, opts wire.HierarchyOptions) (*wire.Hierarchy, error)
	FetchMetadata(ctx context.Context) (*wire.Metadata, error)
}

var _ Transport = (*rpc.Transport)(nil)
