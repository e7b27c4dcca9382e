package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/catalogue"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/registry"
	"github.com/zero-day-ai/gridsync/rpc"
	"github.com/zero-day-ai/gridsync/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

// setupCatalogue serves the fixture network over bufconn and returns the dial
// option that reaches it.
func setupCatalogue(t *testing.T) grpc.DialOption {
	t.Helper()

	backend := catalogue.NewMemoryBackend()
	fixture, err := catalogue.LoadFixture("../catalogue/testdata/network.yaml")
	require.NoError(t, err)
	require.NoError(t, fixture.Apply(context.Background(), backend))

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	rpc.RegisterCatalogueServiceServer(srv, catalogue.NewServer(backend))

	go func() {
		if err := srv.Serve(lis); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
	}()
	t.Cleanup(func() {
		srv.Stop()
		_ = lis.Close()
	})

	return grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return lis.Dial()
	})
}

func TestDial_AgainstCatalogue(t *testing.T) {
	dialer := setupCatalogue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Dial(ctx, "passthrough:///bufnet", WithDialOptions(dialer))
	require.NoError(t, err)
	defer c.Close()

	result := GetEquipmentContainer[*cim.Feeder](ctx, c, "f001", wire.DefaultContainerOptions())
	require.True(t, result.OK(), "err: %v", result.Err())

	res := result.Value()
	for _, id := range []string{"f001", "b001", "c001", "t001", "s001"} {
		assert.Contains(t, res.Objects, id)
	}
	feeder := res.Objects["f001"].(*cim.Feeder)
	assert.Contains(t, feeder.Equipment, "b001")
	assert.Contains(t, feeder.Equipment, "c001")

	breaker := res.Objects["b001"].(*cim.Breaker)
	assert.Equal(t, 11000, breaker.BaseVoltage)

	md := c.GetMetadata(ctx)
	require.True(t, md.OK(), "err: %v", md.Err())
	assert.Equal(t, "Test network", md.Value().Title)

	missing := c.GetIdentifiedObjects(ctx, []string{"nope", "ec001"})
	require.True(t, missing.OK())
	assert.Equal(t, []string{"nope"}, missing.Value().FailedIDs())

	require.NoError(t, c.Store().CheckRequired())
}

type fakeDiscoverer struct {
	instances []registry.ServiceInfo
	err       error
}

func (f fakeDiscoverer) Discover(ctx context.Context, kind, name string) ([]registry.ServiceInfo, error) {
	if kind != registry.KindCatalogue {
		return nil, nil
	}
	return f.instances, f.err
}

func TestDialFromRegistry(t *testing.T) {
	dialer := setupCatalogue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("no instances", func(t *testing.T) {
		_, err := DialFromRegistry(ctx, fakeDiscoverer{}, "network")
		require.Error(t, err)
		assert.True(t, errors.Is(err, gridsync.ErrNotFound))
	})

	t.Run("registry failure", func(t *testing.T) {
		_, err := DialFromRegistry(ctx, fakeDiscoverer{err: errors.New("etcd down")}, "network")
		require.Error(t, err)
		assert.True(t, errors.Is(err, gridsync.ErrTransport))
	})

	t.Run("dials newest live instance", func(t *testing.T) {
		now := time.Now()
		reg := fakeDiscoverer{instances: []registry.ServiceInfo{
			{Kind: registry.KindCatalogue, Name: "network", InstanceID: "old", Endpoint: "passthrough:///bufnet", StartedAt: now.Add(-time.Hour)},
			{Kind: registry.KindCatalogue, Name: "network", InstanceID: "new", Endpoint: "", StartedAt: now},
		}}

		c, err := DialFromRegistry(ctx, reg, "network", WithDialOptions(dialer))
		require.NoError(t, err)
		defer c.Close()

		result := c.GetIdentifiedObject(ctx, "s001")
		require.True(t, result.OK(), "err: %v", result.Err())
	})
}
