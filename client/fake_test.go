package client

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/gridsync/catalogue"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/wire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fakeTransport serves objects from memory and records every request.
type fakeTransport struct {
	mu       sync.Mutex
	objects  map[string]*wire.Object
	members  map[string][]string
	metadata *wire.Metadata

	// failOn makes FetchByIDs fail with Unavailable just before streaming the id.
	failOn      map[string]bool
	metadataErr error

	requests      map[string]int
	batches       [][]string
	memberCalls   []string
	lastOpts      wire.ContainerOptions
	metadataCalls int
}

func newFakeTransport(objs ...*wire.Object) *fakeTransport {
	f := &fakeTransport{
		objects:  make(map[string]*wire.Object),
		members:  make(map[string][]string),
		failOn:   make(map[string]bool),
		requests: make(map[string]int),
	}
	for _, o := range objs {
		f.objects[o.MRID] = o
	}
	return f
}

func (f *fakeTransport) FetchByIDs(ctx context.Context, ids []string, handle func(*wire.Object) error) error {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), ids...))
	for _, id := range ids {
		f.requests[id]++
	}
	f.mu.Unlock()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.mu.Lock()
		fail := f.failOn[id]
		obj, ok := f.objects[id]
		f.mu.Unlock()

		if fail {
			return status.Error(codes.Unavailable, "catalogue unavailable")
		}
		if !ok {
			continue
		}
		if err := handle(obj); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTransport) FetchEquipmentForContainer(ctx context.Context, containerID string, opts wire.ContainerOptions, handle func(string) error) error {
	f.mu.Lock()
	f.memberCalls = append(f.memberCalls, containerID)
	f.lastOpts = opts
	members := f.members[containerID]
	f.mu.Unlock()

	for _, id := range members {
		if err := handle(id); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTransport) FetchHierarchy(ctx context.Context, opts wire.HierarchyOptions) (*wire.Hierarchy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := make(map[cim.Kind]bool)
	for _, k := range opts.Kinds() {
		want[k] = true
	}
	h := &wire.Hierarchy{}
	for _, id := range sortedKeys(f.objects) {
		if o := f.objects[id]; want[o.Kind] {
			h.Objects = append(h.Objects, o)
		}
	}
	return h, nil
}

func (f *fakeTransport) FetchMetadata(ctx context.Context) (*wire.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadataCalls++
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.metadata, nil
}

func (f *fakeTransport) requestCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[id]
}

func (f *fakeTransport) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeTransport) setFailOn(id string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[id] = fail
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func object(mrid string, kind cim.Kind, refs ...graph.Reference) *wire.Object {
	return &wire.Object{MRID: mrid, Kind: kind, References: refs}
}

func ref(relationship, target string) graph.Reference {
	return graph.Reference{Relationship: relationship, TargetID: target}
}

// networkTransport serves the catalogue test fixture.
func networkTransport(t *testing.T) *fakeTransport {
	t.Helper()

	fixture, err := catalogue.LoadFixture("../catalogue/testdata/network.yaml")
	require.NoError(t, err)

	f := newFakeTransport(fixture.Objects...)
	f.metadata = fixture.Metadata
	return f
}

func newTestClient(t *testing.T, transport Transport, opts ...Option) *Client {
	t.Helper()

	c, err := New(transport, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
