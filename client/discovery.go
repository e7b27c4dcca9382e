package client

import (
	"context"
	"fmt"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/registry"
)

// Discoverer finds registered catalogue instances. *registry.Client implements it.
type Discoverer interface {
	Discover(ctx context.Context, kind, name string) ([]registry.ServiceInfo, error)
}

var _ Discoverer = (*registry.Client)(nil)

// DialFromRegistry looks up the catalogue named name and dials its instances,
// newest first, until one connects.
func DialFromRegistry(ctx context.Context, reg Discoverer, name string, opts ...Option) (*Client, error) {
	const op = "client.DialFromRegistry"

	instances, err := reg.Discover(ctx, registry.KindCatalogue, name)
	if err != nil {
		return nil, gridsync.NewTransportError(op, fmt.Errorf("%w: %v", gridsync.ErrTransport, err)).
			WithContext(map[string]any{"catalogue": name})
	}
	if len(instances) == 0 {
		return nil, gridsync.NewNotFoundError(op, fmt.Errorf("%w: no live instances of catalogue %q", gridsync.ErrNotFound, name)).
			WithContext(map[string]any{"catalogue": name})
	}

	var errs []error
	for _, inst := range registry.Newest(instances) {
		c, err := Dial(ctx, inst.Endpoint, opts...)
		if err == nil {
			c.logger.Debug("dialed catalogue from registry", "catalogue", name,
				"instance_id", inst.InstanceID, "endpoint", inst.Endpoint)
			return c, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, joinErrors(errs)
}
