package serve

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/gridsync/catalogue"
	"github.com/zero-day-ai/gridsync/registry"
	"github.com/zero-day-ai/gridsync/rpc"
	"github.com/zero-day-ai/gridsync/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type fakeRegistry struct {
	mu           sync.Mutex
	registered   []registry.ServiceInfo
	deregistered []registry.ServiceInfo
	registerErr  error
	closed       bool
}

func (f *fakeRegistry) Register(_ context.Context, info registry.ServiceInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, info)
	return nil
}

func (f *fakeRegistry) Deregister(_ context.Context, info registry.ServiceInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deregistered = append(f.deregistered, info)
	return nil
}

func (f *fakeRegistry) Discover(context.Context, string, string) ([]registry.ServiceInfo, error) {
	return nil, nil
}

func (f *fakeRegistry) DiscoverAll(context.Context, string) ([]registry.ServiceInfo, error) {
	return nil, nil
}

func (f *fakeRegistry) Watch(context.Context, string, string) (<-chan []registry.ServiceInfo, error) {
	return nil, errors.New("not supported")
}

func (f *fakeRegistry) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRegistry) snapshot() (reg, dereg int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registered), len(f.deregistered)
}

func fixtureBackend(t *testing.T) catalogue.Backend {
	t.Helper()
	fixture, err := catalogue.LoadFixture("../catalogue/testdata/network.yaml")
	require.NoError(t, err)
	backend := catalogue.NewMemoryBackend()
	require.NoError(t, fixture.Apply(context.Background(), backend))
	return backend
}

// startServer runs Serve over bufconn and returns a connection plus a func
// that cancels Serve and returns its error.
func startServer(t *testing.T, opts ...Option) (*Server, *grpc.ClientConn, func() error) {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv, err := NewServer(fixtureBackend(t), append([]Option{
		WithListener(lis),
		WithGracefulShutdown(2 * time.Second),
	}, opts...)...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("Serve did not return after cancel")
			return nil
		}
	}
	return srv, conn, stop
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":50051", cfg.Listen)
	assert.Equal(t, "network", cfg.Name)
	assert.Equal(t, 30*time.Second, cfg.GracefulTimeout)
	assert.Empty(t, cfg.TLSCertFile)
	assert.Empty(t, cfg.TLSKeyFile)
	assert.NotNil(t, cfg.Logger)
}

func TestNewServer(t *testing.T) {
	t.Run("requires backend", func(t *testing.T) {
		srv, err := NewServer(nil)
		assert.Error(t, err)
		assert.Nil(t, srv)
	})

	t.Run("listens on ephemeral port", func(t *testing.T) {
		srv, err := NewServer(catalogue.NewMemoryBackend(), WithListen("127.0.0.1:0"), WithVersion("2024.1"))
		require.NoError(t, err)
		defer srv.Stop()

		assert.NotNil(t, srv.GRPCServer())
		assert.NotNil(t, srv.HealthServer())

		info := srv.ServiceInfo()
		assert.Equal(t, registry.KindCatalogue, info.Kind)
		assert.Equal(t, "network", info.Name)
		assert.Equal(t, "2024.1", info.Version)
		assert.NotEmpty(t, info.InstanceID)
		assert.Equal(t, srv.Addr().String(), info.Endpoint)
		assert.False(t, info.StartedAt.IsZero())
	})

	t.Run("advertise address overrides endpoint", func(t *testing.T) {
		srv, err := NewServer(catalogue.NewMemoryBackend(),
			WithListen("127.0.0.1:0"),
			WithAdvertiseAddr("catalogue.internal:50051"),
			WithName("transmission"))
		require.NoError(t, err)
		defer srv.Stop()

		assert.Equal(t, "catalogue.internal:50051", srv.ServiceInfo().Endpoint)
		assert.Equal(t, "transmission", srv.ServiceInfo().Name)
	})

	t.Run("invalid listen address", func(t *testing.T) {
		_, err := NewServer(catalogue.NewMemoryBackend(), WithListen("not-an-address"))
		assert.Error(t, err)
	})

	t.Run("missing TLS files", func(t *testing.T) {
		_, err := NewServer(catalogue.NewMemoryBackend(),
			WithListen("127.0.0.1:0"),
			WithTLS("/nonexistent/cert.pem", "/nonexistent/key.pem"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TLS")
	})
}

func TestServe_HealthAndCatalogue(t *testing.T) {
	_, conn, stop := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health := grpc_health_v1.NewHealthClient(conn)
	resp, err := health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: rpc.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	transport := rpc.NewTransport(conn)
	var got []string
	err = transport.FetchByIDs(ctx, []string{"b001", "f001"}, func(obj *wire.Object) error {
		got = append(got, obj.MRID)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b001", "f001"}, got)

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestServe_Registration(t *testing.T) {
	reg := &fakeRegistry{}
	srv, _, stop := startServer(t, WithRegistry(reg), WithName("network"))

	require.Eventually(t, func() bool {
		n, _ := reg.snapshot()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, stop(), context.Canceled)

	n, d := reg.snapshot()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, d)
	assert.Equal(t, srv.ServiceInfo().InstanceID, reg.deregistered[0].InstanceID)
	assert.False(t, reg.closed, "caller-owned registry must stay open")
}

func TestServe_RegistrationFailureKeepsServing(t *testing.T) {
	reg := &fakeRegistry{registerErr: errors.New("etcd unavailable")}
	_, conn, stop := startServer(t, WithRegistry(reg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	md, err := rpc.NewTransport(conn).FetchMetadata(ctx)
	require.NoError(t, err)
	assert.NotNil(t, md)

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestWithRegistryFromEnv_Unset(t *testing.T) {
	t.Setenv(registry.EnvEndpoints, "")

	cfg := DefaultConfig()
	WithRegistryFromEnv()(cfg)
	assert.Nil(t, cfg.Registry)
	assert.False(t, cfg.ownsRegistry)
}

func TestGracefulStop_Idle(t *testing.T) {
	srv, err := NewServer(catalogue.NewMemoryBackend(),
		WithListen("127.0.0.1:0"),
		WithGracefulShutdown(time.Second))
	require.NoError(t, err)

	go func() { _ = srv.GRPCServer().Serve(srv.listener) }()
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("GracefulStop did not return")
	}
}
