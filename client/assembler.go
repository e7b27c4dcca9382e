package client

import (
	"context"
	"fmt"
	"sort"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/wire"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GetIdentifiedObject fetches one object and everything it references. The
// identifier never being returned is a NotFound failure.
func (c *Client) GetIdentifiedObject(ctx context.Context, mrid string) gridsync.Result[cim.IdentifiedObject] {
	ctx, op := c.startOperation(ctx, "GetIdentifiedObject", attribute.String("gridsync.mrid", mrid))

	res, err := c.expand(ctx, op.name, []string{mrid})
	if err != nil {
		return finish[cim.IdentifiedObject](c, ctx, op, nil, err)
	}

	obj, ok := res.Objects[mrid]
	if !ok {
		err = gridsync.NewNotFoundError(op.name, fmt.Errorf("%w: %q", gridsync.ErrNotFound, mrid)).
			WithContext(map[string]any{"mrid": mrid})
		return finish[cim.IdentifiedObject](c, ctx, op, nil, err)
	}
	return finish(c, ctx, op, obj, nil)
}

// GetIdentifiedObjects fetches objects and everything they reference. Identifiers
// the catalogue never returned are reported in the result's Failed set.
func (c *Client) GetIdentifiedObjects(ctx context.Context, mrids []string) gridsync.Result[*MultiObjectResult] {
	ctx, op := c.startOperation(ctx, "GetIdentifiedObjects", attribute.Int("gridsync.requested", len(mrids)))

	res, err := c.expand(ctx, op.name, mrids)
	return finish(c, ctx, op, res, err)
}

// ResolveReferences re-runs expansion over an earlier result: references that
// were outstanding are fetched again and previously failed identifiers retried.
// The returned result is a fresh view; partial is not modified.
func (c *Client) ResolveReferences(ctx context.Context, partial *MultiObjectResult) gridsync.Result[*MultiObjectResult] {
	ctx, op := c.startOperation(ctx, "ResolveReferences")

	if partial == nil {
		return finish(c, ctx, op, NewMultiObjectResult(), nil)
	}
	roots := append(partial.IDs(), partial.FailedIDs()...)

	res, err := c.expand(ctx, op.name, roots)
	return finish(c, ctx, op, res, err)
}

// GetEquipmentContainer fetches container mrid as kind T together with its
// equipment. The identifier resolving to any other kind is a TypeMismatch failure
// naming both kinds.
func GetEquipmentContainer[T cim.EquipmentContainer](ctx context.Context, c *Client, mrid string, opts wire.ContainerOptions) gridsync.Result[*MultiObjectResult] {
	var zero T
	var kind cim.Kind
	if any(zero) != nil {
		kind = zero.Kind()
	}
	return c.GetEquipmentContainerOfKind(ctx, mrid, kind, opts)
}

// GetEquipmentContainerOfKind is GetEquipmentContainer with the kind given at run
// time. An empty kind accepts any container kind.
func (c *Client) GetEquipmentContainerOfKind(ctx context.Context, mrid string, kind cim.Kind, opts wire.ContainerOptions) gridsync.Result[*MultiObjectResult] {
	ctx, op := c.startOperation(ctx, "GetEquipmentContainer",
		attribute.String("gridsync.mrid", mrid),
		attribute.String("gridsync.kind", string(kind)))

	res, err := c.assembleContainer(ctx, op.name, mrid, kind, opts)
	return finish(c, ctx, op, res, err)
}

// GetEquipmentForContainer fetches the equipment of a container without the
// container itself.
func (c *Client) GetEquipmentForContainer(ctx context.Context, mrid string, opts wire.ContainerOptions) gridsync.Result[*MultiObjectResult] {
	ctx, op := c.startOperation(ctx, "GetEquipmentForContainer", attribute.String("gridsync.mrid", mrid))

	res, err := c.equipmentForContainers(ctx, op.name, []string{mrid}, opts)
	return finish(c, ctx, op, res, err)
}

// GetEquipmentForContainers fetches the equipment of several containers. Members
// shared between containers are requested once.
func (c *Client) GetEquipmentForContainers(ctx context.Context, mrids []string, opts wire.ContainerOptions) gridsync.Result[*MultiObjectResult] {
	ctx, op := c.startOperation(ctx, "GetEquipmentForContainers", attribute.Int("gridsync.containers", len(mrids)))

	res, err := c.equipmentForContainers(ctx, op.name, mrids, opts)
	return finish(c, ctx, op, res, err)
}

// GetAllLoops fetches every loop in the network.
func (c *Client) GetAllLoops(ctx context.Context) gridsync.Result[*MultiObjectResult] {
	ctx, op := c.startOperation(ctx, "GetAllLoops")

	res, _, err := c.hierarchy(ctx, op.name, wire.HierarchyOptions{Loops: true})
	return finish(c, ctx, op, res, err)
}

// GetEquipmentForLoop fetches a loop, its circuits and substations, and the
// equipment of each of them.
func (c *Client) GetEquipmentForLoop(ctx context.Context, mrid string, opts wire.ContainerOptions) gridsync.Result[*MultiObjectResult] {
	ctx, op := c.startOperation(ctx, "GetEquipmentForLoop", attribute.String("gridsync.mrid", mrid))

	res, err := c.assembleLoop(ctx, op.name, mrid, opts)
	return finish(c, ctx, op, res, err)
}

// GetNetworkHierarchy fetches the aggregate-level objects selected by opts and
// links them to each other.
func (c *Client) GetNetworkHierarchy(ctx context.Context, opts wire.HierarchyOptions) gridsync.Result[*NetworkHierarchy] {
	ctx, op := c.startOperation(ctx, "GetNetworkHierarchy")

	_, h, err := c.hierarchy(ctx, op.name, opts)
	return finish(c, ctx, op, h, err)
}

// assembleContainer runs the by-container pipeline: the container itself, its
// member identifiers, the members' graph, then membership validation.
func (c *Client) assembleContainer(ctx context.Context, op, mrid string, kind cim.Kind, opts wire.ContainerOptions) (*MultiObjectResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, gridsync.NewValidationError(op, err)
	}

	head, err := c.expand(ctx, op, []string{mrid})
	if err != nil {
		return head, err
	}

	obj, ok := head.Objects[mrid]
	if !ok {
		return head, gridsync.NewNotFoundError(op, fmt.Errorf("%w: container %q", gridsync.ErrNotFound, mrid)).
			WithContext(map[string]any{"mrid": mrid})
	}
	if kind != "" && obj.Kind() != kind {
		return nil, typeMismatch(op, mrid, string(kind), obj.Kind())
	}
	container, ok := obj.(cim.EquipmentContainer)
	if !ok {
		return nil, typeMismatch(op, mrid, "EquipmentContainer", obj.Kind())
	}

	members, err := c.fetchMembers(ctx, op, mrid, opts)
	if err != nil {
		return head, err
	}

	res, err := c.expand(ctx, op, members)
	res.merge(head)
	if linkErr := c.attach(container, members, opts.NetworkState); linkErr != nil && err == nil {
		err = linkErr
	}
	return res, err
}

// equipmentForContainers collects the member identifiers of every container,
// de-duplicated, and expands them in one run.
func (c *Client) equipmentForContainers(ctx context.Context, op string, mrids []string, opts wire.ContainerOptions) (*MultiObjectResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, gridsync.NewValidationError(op, err)
	}

	membersOf := make(map[string][]string, len(mrids))
	seen := make(map[string]struct{})
	var all []string
	for _, mrid := range mrids {
		if _, dup := membersOf[mrid]; dup {
			continue
		}
		members, err := c.fetchMembers(ctx, op, mrid, opts)
		if err != nil {
			return NewMultiObjectResult(), err
		}
		membersOf[mrid] = members
		for _, m := range members {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				all = append(all, m)
			}
		}
	}

	res, err := c.expand(ctx, op, all)

	for mrid, members := range membersOf {
		obj, ok := c.store.Get(mrid)
		if !ok {
			continue
		}
		if container, ok := obj.(cim.EquipmentContainer); ok {
			if linkErr := c.attach(container, members, opts.NetworkState); linkErr != nil && err == nil {
				err = linkErr
			}
		}
	}
	return res, err
}

// assembleLoop fetches the loop, then its containers, then their equipment. The
// loop's container relationships are container edges, so the container
// identifiers come from the loop's resolved fields and its still-pending references.
func (c *Client) assembleLoop(ctx context.Context, op, mrid string, opts wire.ContainerOptions) (*MultiObjectResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, gridsync.NewValidationError(op, err)
	}

	head, err := c.expand(ctx, op, []string{mrid})
	if err != nil {
		return head, err
	}
	obj, ok := head.Objects[mrid]
	if !ok {
		return head, gridsync.NewNotFoundError(op, fmt.Errorf("%w: loop %q", gridsync.ErrNotFound, mrid)).
			WithContext(map[string]any{"mrid": mrid})
	}
	loop, ok := obj.(*cim.Loop)
	if !ok {
		return nil, typeMismatch(op, mrid, string(cim.KindLoop), obj.Kind())
	}

	containerIDs := c.loopContainerIDs(loop)
	containers, err := c.expand(ctx, op, containerIDs)
	head.merge(containers)
	if err != nil {
		return head, err
	}

	members, err := c.equipmentForContainers(ctx, op, containers.IDs(), opts)
	head.merge(members)
	return head, err
}

func (c *Client) loopContainerIDs(loop *cim.Loop) []string {
	var ids []string
	c.store.View(func() {
		ids = loop.ContainerIDs()
	})

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	pending := c.store.Outstanding(graph.OutstandingOptions{
		Sources: map[string]struct{}{loop.MRID(): {}},
	})
	for _, id := range pending {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// fetchMembers collects the identifiers streamed by FetchEquipmentForContainer.
func (c *Client) fetchMembers(ctx context.Context, op, containerID string, opts wire.ContainerOptions) ([]string, error) {
	c.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("rpc", "FetchEquipmentForContainer")))

	var ids []string
	err := c.transport.FetchEquipmentForContainer(ctx, containerID, opts, func(id string) error {
		if id != "" {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		cause := gridsync.FromRPCError(op, err)
		c.logger.WarnContext(ctx, "equipment for container failed",
			"operation", op,
			"container", containerID,
			"error", cause)
		return ids, cause
	}
	return ids, nil
}

// attach links every member equipment to container that is not already linked.
// Equipment-to-container references are container edges, so a member the
// catalogue lists under a container may not carry the reference itself.
func (c *Client) attach(container cim.EquipmentContainer, members []string, state wire.NetworkState) error {
	relationship := graph.EquipmentContainers
	if state == wire.NetworkStateCurrent {
		relationship = graph.EquipmentCurrentContainers
	}
	id := container.MRID()

	var candidates []cim.Equipment
	for _, m := range members {
		if obj, ok := c.store.Get(m); ok {
			if eq, ok := obj.(cim.Equipment); ok {
				candidates = append(candidates, eq)
			}
		}
	}

	var missing []cim.Equipment
	c.store.View(func() {
		for _, eq := range candidates {
			fields := eq.Equip()
			if _, linked := fields.Containers[id]; linked {
				continue
			}
			if _, linked := fields.CurrentContainers[id]; linked {
				continue
			}
			missing = append(missing, eq)
		}
	})

	for _, eq := range missing {
		if err := c.store.Link(eq, relationship, container); err != nil {
			return err
		}
	}
	return nil
}

func typeMismatch(op, mrid, requested string, actual cim.Kind) error {
	return gridsync.NewTypeMismatchError(op,
		fmt.Errorf("%w: %q was requested as %s but is a %s", gridsync.ErrTypeMismatch, mrid, requested, actual)).
		WithContext(map[string]any{
			"mrid":      mrid,
			"requested": requested,
			"actual":    string(actual),
		})
}
