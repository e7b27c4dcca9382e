package client

import (
	"context"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/wire"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GetMetadata returns the catalogue's metadata. The first successful response is
// cached for the lifetime of the client; later calls never reach the catalogue.
//
// Concurrent first calls are serialized. Error observers run after the cache
// lock is released, so an observer may call GetMetadata again.
func (c *Client) GetMetadata(ctx context.Context) gridsync.Result[*wire.Metadata] {
	c.metadataMu.Lock()
	if c.metadataPopulated {
		md := c.metadata
		c.metadataMu.Unlock()
		return gridsync.Success(md)
	}

	ctx, op := c.startOperation(ctx, "GetMetadata")
	c.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("rpc", "FetchMetadata")))

	md, err := c.transport.FetchMetadata(ctx)
	if err == nil {
		c.metadata = md
		c.metadataPopulated = true
	}
	c.metadataMu.Unlock()

	if err != nil {
		return finish[*wire.Metadata](c, ctx, op, nil, gridsync.FromRPCError(op.name, err))
	}
	return finish(c, ctx, op, md, nil)
}
