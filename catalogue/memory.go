package catalogue

import (
	"context"
	"sort"
	"sync"

	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/wire"
)

// MemoryBackend is an in-process Backend.
type MemoryBackend struct {
	mu       sync.RWMutex
	objects  map[string]*wire.Object
	members  map[wire.NetworkState]map[string]map[string]struct{}
	metadata *wire.Metadata
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[string]*wire.Object),
		members: map[wire.NetworkState]map[string]map[string]struct{}{
			wire.NetworkStateNormal:  {},
			wire.NetworkStateCurrent: {},
		},
		metadata: &wire.Metadata{},
	}
}

// Put implements Backend.
func (b *MemoryBackend) Put(ctx context.Context, objs ...*wire.Object) error {
	for _, obj := range objs {
		if err := obj.Validate(); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, obj := range objs {
		if old, ok := b.objects[obj.MRID]; ok {
			for state, containers := range memberships(old) {
				for _, c := range containers {
					delete(b.members[state][c], old.MRID)
				}
			}
		}

		b.objects[obj.MRID] = obj
		for state, containers := range memberships(obj) {
			for _, c := range containers {
				set, ok := b.members[state][c]
				if !ok {
					set = make(map[string]struct{})
					b.members[state][c] = set
				}
				set[obj.MRID] = struct{}{}
			}
		}
	}
	return nil
}

// Get implements Backend.
func (b *MemoryBackend) Get(ctx context.Context, mrid string) (*wire.Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.objects[mrid], nil
}

// Members implements Backend.
func (b *MemoryBackend) Members(ctx context.Context, containerID string, state wire.NetworkState) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	set := b.members[state][containerID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// OfKinds implements Backend.
func (b *MemoryBackend) OfKinds(ctx context.Context, kinds ...cim.Kind) ([]*wire.Object, error) {
	want := kindSet(kinds)

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*wire.Object
	for _, obj := range b.objects {
		if _, ok := want[obj.Kind]; ok {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MRID < out[j].MRID })
	return out, nil
}

// SetMetadata implements Backend.
func (b *MemoryBackend) SetMetadata(ctx context.Context, md *wire.Metadata) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if md == nil {
		md = &wire.Metadata{}
	}
	b.metadata = md
	return nil
}

// Metadata implements Backend.
func (b *MemoryBackend) Metadata(ctx context.Context) (*wire.Metadata, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metadata, nil
}

// Close implements Backend.
func (b *MemoryBackend) Close() error { return nil }
