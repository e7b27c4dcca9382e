// Package gridsync assembles electrical network models from a catalogue service.
//
// A catalogue serves network objects (substations, feeders, breakers, terminals and
// so on) one identifier at a time. Objects reference each other by mRID, and a
// reference can arrive before the object it points to. gridsync fetches objects in
// batches, records every reference it cannot resolve yet, and keeps fetching until
// the graph reachable from the requested roots is complete.
//
// # Core Concepts
//
// The module is organized around several packages:
//
//   - cim: the network object model, a closed set of kinds behind IdentifiedObject
//   - graph: the object store, the relationship table and pending references
//   - wire: the encoded form of objects and request payloads
//   - rpc: the catalogue gRPC service and its client transport
//   - client: batched fetching, graph expansion and container assembly
//   - catalogue: a catalogue server over memory or Redis backends
//   - serve: the catalogue server lifecycle (health, shutdown, registration)
//   - registry: etcd discovery of catalogue servers
//   - config, query, snapshot: configuration, CEL filtering and SQLite snapshots
//
// # Getting Started
//
//	c, err := client.Dial(ctx, "localhost:50051")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer gridsync.CloseWithLog(c, logger, "catalogue client")
//
//	res := c.GetIdentifiedObject(ctx, "b001")
//	obj, err := res.Get()
//
// # Error Handling
//
// Every exposed call returns a Result. Failures carry a *Error whose Kind can be
// matched with errors.Is against the package sentinels:
//
//	if _, err := res.Get(); err != nil {
//		if errors.Is(err, gridsync.ErrNotFound) {
//			// the catalogue does not know the identifier
//		}
//	}
//
// Error observers registered on the client see every failure before it is returned
// and report whether they handled it; Result.WasHandled exposes the answer.
//
// # Thread Safety
//
// Client methods are safe for concurrent use. All mutation of the object graph is
// serialized by the store, so relationship fields of returned objects should be
// read through graph.Store.View while other calls may still be running.
package gridsync
