package catalogue

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/rpc"
	"github.com/zero-day-ai/gridsync/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func setupRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	backend, err := NewRedisBackend(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = backend.Close()
		mr.Close()
	})
	return backend, mr
}

func loadTestFixture(t *testing.T, backend Backend) {
	t.Helper()
	f, err := LoadFixture("testdata/network.yaml")
	require.NoError(t, err)
	require.NoError(t, f.Apply(context.Background(), backend))
}

// backends runs fn against every Backend implementation.
func backends(t *testing.T, fn func(t *testing.T, b Backend)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryBackend())
	})
	t.Run("redis", func(t *testing.T) {
		b, _ := setupRedisBackend(t)
		fn(t, b)
	})
}

func TestBackend_GetAndMembers(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		loadTestFixture(t, b)

		obj, err := b.Get(ctx, "b001")
		require.NoError(t, err)
		require.NotNil(t, obj)
		assert.Equal(t, cim.KindBreaker, obj.Kind)
		assert.Equal(t, []string{"t001"}, obj.Targets(graph.ConductingEquipmentTerminals))

		missing, err := b.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)

		members, err := b.Members(ctx, "f001", wire.NetworkStateNormal)
		require.NoError(t, err)
		assert.Equal(t, []string{"b001", "c001"}, members)

		current, err := b.Members(ctx, "lv001", wire.NetworkStateCurrent)
		require.NoError(t, err)
		assert.Equal(t, []string{"c001"}, current)
	})
}

func TestBackend_PutReplacesMemberships(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		loadTestFixture(t, b)

		moved := &wire.Object{
			MRID: "c001",
			Kind: cim.KindAcLineSegment,
			References: []graph.Reference{
				{Relationship: graph.EquipmentContainers, TargetID: "lv001"},
			},
		}
		require.NoError(t, b.Put(ctx, moved))

		members, err := b.Members(ctx, "f001", wire.NetworkStateNormal)
		require.NoError(t, err)
		assert.Equal(t, []string{"b001"}, members)

		members, err = b.Members(ctx, "lv001", wire.NetworkStateNormal)
		require.NoError(t, err)
		assert.Equal(t, []string{"c001", "ec001"}, members)
	})
}

func TestBackend_PutRejectsInvalid(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		err := b.Put(context.Background(), &wire.Object{MRID: "x", Kind: "Teapot"})
		assert.Error(t, err)
	})
}

func TestBackend_OfKinds(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		loadTestFixture(t, b)

		objs, err := b.OfKinds(ctx, cim.KindFeeder, cim.KindSubstation)
		require.NoError(t, err)
		require.Len(t, objs, 2)
		assert.Equal(t, "f001", objs[0].MRID)
		assert.Equal(t, "s001", objs[1].MRID)

		none, err := b.OfKinds(ctx)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestBackend_Metadata(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()

		empty, err := b.Metadata(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty.Title)

		loadTestFixture(t, b)
		md, err := b.Metadata(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Test network", md.Title)
		assert.Equal(t, "3", md.Version)
		require.Len(t, md.DataSources, 1)
		assert.Equal(t, "gis", md.DataSources[0].Source)
		assert.True(t, md.DataSources[0].Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	})
}

func TestRedisBackend_Keys(t *testing.T) {
	b, mr := setupRedisBackend(t)
	loadTestFixture(t, b)

	assert.True(t, mr.Exists("gridsync:object:f001"))
	assert.True(t, mr.Exists("gridsync:metadata"))

	members, err := mr.Members("gridsync:members:NORMAL:lv001")
	require.NoError(t, err)
	assert.Equal(t, []string{"ec001"}, members)

	feeders, err := mr.Members("gridsync:kind:Feeder")
	require.NoError(t, err)
	assert.Equal(t, []string{"f001"}, feeders)
}

func TestNewRedisBackend_Errors(t *testing.T) {
	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisBackend(RedisOptions{URL: "invalid://url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisBackend(RedisOptions{
			URL:            "redis://localhost:99999",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestParseFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "objects: [\n"},
		{"missing mrid", "objects:\n  - kind: Feeder\n"},
		{"unknown kind", "objects:\n  - mrid: x\n    kind: Teapot\n"},
		{"duplicate mrid", "objects:\n  - mrid: x\n    kind: Feeder\n  - mrid: x\n    kind: Site\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

// setupCatalogueTestServer serves a fixture-loaded memory backend over bufconn.
func setupCatalogueTestServer(t *testing.T) (*rpc.Transport, rpc.CatalogueServiceClient) {
	t.Helper()

	backend := NewMemoryBackend()
	loadTestFixture(t, backend)

	const bufSize = 1024 * 1024
	lis := bufconn.Listen(bufSize)

	srv := grpc.NewServer()
	rpc.RegisterCatalogueServiceServer(srv, NewServer(backend))

	go func() {
		if err := srv.Serve(lis); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		lis.Close()
	})

	return rpc.NewTransport(conn), rpc.NewCatalogueServiceClient(conn)
}

func collectIDs(t *testing.T, tr *rpc.Transport, ids ...string) []string {
	t.Helper()
	var got []string
	err := tr.FetchByIDs(context.Background(), ids, func(o *wire.Object) error {
		got = append(got, o.MRID)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestServer_FetchByIds(t *testing.T) {
	tr, _ := setupCatalogueTestServer(t)

	assert.Equal(t, []string{"t001", "b001"}, collectIDs(t, tr, "t001", "unknown", "b001"))
	assert.Empty(t, collectIDs(t, tr, "unknown"))
}

func TestServer_FetchByIds_TooMany(t *testing.T) {
	_, stub := setupCatalogueTestServer(t)

	values := make([]*structpb.Value, rpc.MaxIdentifiersPerCall+1)
	for i := range values {
		values[i] = structpb.NewStringValue(fmt.Sprintf("id-%d", i))
	}
	stream, err := stub.FetchByIds(context.Background(), &structpb.ListValue{Values: values})
	require.NoError(t, err)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_FetchEquipmentForContainer(t *testing.T) {
	tr, _ := setupCatalogueTestServer(t)

	tests := []struct {
		name      string
		container string
		opts      wire.ContainerOptions
		want      []string
	}{
		{
			name:      "normal members",
			container: "f001",
			opts:      wire.DefaultContainerOptions(),
			want:      []string{"b001", "c001"},
		},
		{
			name:      "current members",
			container: "lv001",
			opts:      wire.ContainerOptions{NetworkState: wire.NetworkStateCurrent},
			want:      []string{"c001"},
		},
		{
			name:      "all states",
			container: "lv001",
			opts:      wire.ContainerOptions{NetworkState: wire.NetworkStateAll},
			want:      []string{"ec001", "c001"},
		},
		{
			name:      "energizing substation",
			container: "f001",
			opts:      wire.ContainerOptions{IncludeEnergizing: wire.EnergizingSubstations},
			want:      []string{"s001", "b001", "c001"},
		},
		{
			name:      "lv feeder energizing substations",
			container: "lv001",
			opts:      wire.ContainerOptions{IncludeEnergizing: wire.EnergizingSubstations},
			want:      []string{"f001", "s001", "ec001", "b001", "c001"},
		},
		{
			name:      "substation energized lv feeders",
			container: "s001",
			opts:      wire.ContainerOptions{IncludeEnergized: wire.EnergizedLvFeeders},
			want:      []string{"f001", "lv001", "b001", "c001", "ec001"},
		},
		{
			name:      "unknown container",
			container: "nope",
			opts:      wire.DefaultContainerOptions(),
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := tr.FetchEquipmentForContainer(context.Background(), tt.container, tt.opts, func(id string) error {
				got = append(got, id)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServer_FetchHierarchy(t *testing.T) {
	tr, _ := setupCatalogueTestServer(t)

	h, err := tr.FetchHierarchy(context.Background(), wire.HierarchyOptions{
		GeographicalRegions:    true,
		SubGeographicalRegions: true,
	})
	require.NoError(t, err)

	var ids []string
	for _, o := range h.Objects {
		ids = append(ids, o.MRID)
	}
	assert.Equal(t, []string{"gr001", "sgr001"}, ids)
}

func TestServer_FetchMetadata(t *testing.T) {
	tr, _ := setupCatalogueTestServer(t)

	md, err := tr.FetchMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Test network", md.Title)
}

func TestNewServer_InstanceID(t *testing.T) {
	a := NewServer(NewMemoryBackend())
	b := NewServer(NewMemoryBackend())
	assert.NotEmpty(t, a.InstanceID())
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())

	c := NewServer(NewMemoryBackend(), WithInstanceID("fixed"))
	assert.Equal(t, "fixed", c.InstanceID())
}
