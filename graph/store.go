package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
)

// Store is the in-memory collection of objects keyed by mRID. It owns the
// pending-reference Registry and serializes every mutation of the graph: adds,
// resolver callbacks and registry updates all run under one lock.
//
// Once present, an mRID's object is never removed or replaced.
//
// Thread-safety: All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	schema  *Schema
	objects map[string]cim.IdentifiedObject
	pending *Registry
}

// NewStore creates an empty Store. A nil schema selects DefaultSchema.
func NewStore(schema *Schema) *Store {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Store{
		schema:  schema,
		objects: make(map[string]cim.IdentifiedObject),
		pending: NewRegistry(),
	}
}

// Schema returns the relationship table the store resolves with.
func (s *Store) Schema() *Schema { return s.schema }

// Add inserts obj and fires every reference waiting on its mRID.
//
// Re-adding the same entity (same mRID, kind and identity attributes) is a no-op.
// Adding a different object under an existing mRID fails with a duplicate
// identifier conflict and leaves the stored object untouched.
func (s *Store) Add(obj cim.IdentifiedObject) error {
	_, err := s.AddWithReferences(obj, nil)
	return err
}

// AddWithReferences inserts obj, fires the references waiting on it, then resolves
// or defers each of obj's own outgoing references. It reports whether obj was newly
// inserted; a duplicate add returns false and does not register refs a second time.
func (s *Store) AddWithReferences(obj cim.IdentifiedObject, refs []Reference) (bool, error) {
	if obj == nil || obj.MRID() == "" {
		return false, gridsync.NewValidationError("Store.Add", errors.New("object must have an mRID"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mrid := obj.MRID()
	if existing, ok := s.objects[mrid]; ok {
		if cim.SameEntity(existing, obj) {
			return false, nil
		}
		return false, gridsync.NewDuplicateIdentifierError("Store.Add",
			fmt.Errorf("%w: %q already held by %s, cannot add %s", gridsync.ErrDuplicateIdentifier,
				mrid, existing.Kind(), obj.Kind())).
			WithContext(map[string]any{"mrid": mrid, "existing_kind": string(existing.Kind()), "kind": string(obj.Kind())})
	}

	s.objects[mrid] = obj

	var errs []error
	if err := s.pending.OnObjectAdded(mrid, obj); err != nil {
		errs = append(errs, err)
	}
	for _, ref := range refs {
		if err := s.deferOrResolveLocked(obj, ref.Relationship, ref.TargetID); err != nil {
			errs = append(errs, err)
		}
	}
	return true, errors.Join(errs...)
}

// Get returns the object stored under mrid.
func (s *Store) Get(mrid string) (cim.IdentifiedObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[mrid]
	return obj, ok
}

// Require returns the object stored under mrid or a NotFound error naming context.
// Use it where absence is a logic error rather than missing data.
func (s *Store) Require(mrid, context string) (cim.IdentifiedObject, error) {
	if obj, ok := s.Get(mrid); ok {
		return obj, nil
	}
	return nil, gridsync.NewNotFoundError("Store.Require",
		fmt.Errorf("%w: %q required by %s", gridsync.ErrNotFound, mrid, context)).
		WithContext(map[string]any{"mrid": mrid, "context": context})
}

// DeferOrResolve resolves source's relationship to targetID now if the target is
// present, otherwise queues it. It reports whether the reference was deferred.
func (s *Store) DeferOrResolve(source cim.IdentifiedObject, relationship, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.schema.Resolver(relationship)
	if !ok {
		return false, unknownRelationship(relationship)
	}
	return s.pending.DeferOrResolve(s.lookupLocked, res, source, targetID)
}

// Link resolves source's relationship against an already-known target.
func (s *Store) Link(source cim.IdentifiedObject, relationship string, target cim.IdentifiedObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.schema.Resolver(relationship)
	if !ok {
		return unknownRelationship(relationship)
	}
	return res.Resolve(source, target)
}

// View runs fn while holding the read lock, so relationship fields of stored
// objects can be inspected without racing concurrent resolution.
func (s *Store) View(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// Outstanding returns the distinct target mRIDs still pending, sorted.
func (s *Store) Outstanding(opts OutstandingOptions) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.Outstanding(opts)
}

// Pending returns a copy of the references waiting on targetID.
func (s *Store) Pending(targetID string) []UnresolvedReference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.Pending(targetID)
}

// PendingCount returns the number of queued references.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.Len()
}

// CheckRequired reports every required reference that is still unresolved.
func (s *Store) CheckRequired() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.CheckRequired()
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Range calls fn for every stored object in mRID order until fn returns false.
// fn must not call back into the Store.
func (s *Store) Range(fn func(obj cim.IdentifiedObject) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !fn(s.objects[id]) {
			return
		}
	}
}

// Kinds counts stored objects per kind.
func (s *Store) Kinds() map[cim.Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[cim.Kind]int)
	for _, obj := range s.objects {
		counts[obj.Kind()]++
	}
	return counts
}

func (s *Store) lookupLocked(mrid string) (cim.IdentifiedObject, bool) {
	obj, ok := s.objects[mrid]
	return obj, ok
}

func (s *Store) deferOrResolveLocked(source cim.IdentifiedObject, relationship, targetID string) error {
	res, ok := s.schema.Resolver(relationship)
	if !ok {
		return unknownRelationship(relationship)
	}
	_, err := s.pending.DeferOrResolve(s.lookupLocked, res, source, targetID)
	return err
}

func unknownRelationship(name string) error {
	return gridsync.NewValidationError("Store.Resolve", fmt.Errorf("unknown relationship %q", name))
}
