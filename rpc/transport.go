package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/zero-day-ai/gridsync/wire"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Transport adapts the catalogue service stub to typed wire values. Streaming
// responses are handed to a callback one message at a time, in arrival order.
//
// Errors are returned as received from gRPC (status errors, context errors) or
// as decode errors; classification is left to the caller.
type Transport struct {
	client CatalogueServiceClient
}

// NewTransport creates a Transport over an established connection.
func NewTransport(cc grpc.ClientConnInterface) *Transport {
	return &Transport{client: NewCatalogueServiceClient(cc)}
}

// FetchByIDs streams the objects for ids. Unknown ids are silently skipped by the
// server. If handle returns an error the stream is cancelled and that error returned.
func (t *Transport) FetchByIDs(ctx context.Context, ids []string, handle func(*wire.Object) error) error {
	if len(ids) > MaxIdentifiersPerCall {
		return fmt.Errorf("FetchByIds: %d identifiers exceeds the per-call limit of %d", len(ids), MaxIdentifiersPerCall)
	}

	values := make([]*structpb.Value, len(ids))
	for i, id := range ids {
		values[i] = structpb.NewStringValue(id)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := t.client.FetchByIds(ctx, &structpb.ListValue{Values: values})
	if err != nil {
		return err
	}

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		obj, err := wire.ObjectFromStruct(msg)
		if err != nil {
			return fmt.Errorf("FetchByIds: %w", err)
		}
		if err := handle(obj); err != nil {
			return err
		}
	}
}

// FetchEquipmentForContainer streams the identifiers of the equipment belonging
// to containerID under opts.
func (t *Transport) FetchEquipmentForContainer(ctx context.Context, containerID string, opts wire.ContainerOptions, handle func(string) error) error {
	req, err := wire.ContainerRequest(containerID, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := t.client.FetchEquipmentForContainer(ctx, req)
	if err != nil {
		return err
	}

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := handle(msg.GetValue()); err != nil {
			return err
		}
	}
}

// FetchHierarchy fetches the hierarchy objects selected by opts.
func (t *Transport) FetchHierarchy(ctx context.Context, opts wire.HierarchyOptions) (*wire.Hierarchy, error) {
	req, err := opts.ToStruct()
	if err != nil {
		return nil, err
	}

	resp, err := t.client.FetchHierarchy(ctx, req)
	if err != nil {
		return nil, err
	}
	return wire.HierarchyFromStruct(resp)
}

// FetchMetadata fetches the service metadata.
func (t *Transport) FetchMetadata(ctx context.Context) (*wire.Metadata, error) {
	resp, err := t.client.FetchMetadata(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return wire.MetadataFromStruct(resp)
}
