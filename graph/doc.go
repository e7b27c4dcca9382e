// Package graph holds the in-memory object graph the gridsync client assembles:
// the Store (one entry per mRID, never replaced or removed), the Resolver
// descriptors naming every relationship between kinds, and the pending-reference
// Registry that remembers which relationships are waiting on objects that have not
// arrived yet.
//
// Resolution is synchronous. When an object is added, every reference waiting on
// its mRID fires immediately, in registration order, while the Store lock is held.
// The object's own outgoing references are then either resolved on the spot (the
// target is already present) or deferred under the target mRID.
//
// Some relationships are container edges: they are recorded and resolved like any
// other, but Outstanding can leave them out so that fetching one piece of equipment
// does not drag in its container and, through it, the rest of the network.
package graph
