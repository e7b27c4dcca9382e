// Package client assembles a consistent object graph from a catalogue service.
//
// The catalogue can only be queried by identifier and answers with partial,
// streamed batches in arbitrary order. The client stores every object it receives
// in a graph.Store, whose pending-reference registry links objects together as
// their counterparts arrive, and keeps issuing follow-up fetches for referenced
// objects it has not seen until nothing new is reachable. Relationships marked as
// container edges are never followed automatically, so asking for one piece of
// equipment does not pull in every other piece of equipment in its feeder.
//
// Every exposed call returns a gridsync.Result. A multi-object result carries the
// objects that were resolved and the identifiers that were requested but never
// returned; a non-empty failed set is data, not an error.
//
// Example:
//
//	c, err := client.Dial(ctx, "catalogue:50051", client.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	res := client.GetEquipmentContainer[*cim.Feeder](ctx, c, "f001", wire.DefaultContainerOptions())
//	graph, err := res.Get()
package client
