// Package registry provides service registration and discovery for catalogue
// servers, backed by etcd.
//
// A catalogue server registers a ServiceInfo under /<namespace>/catalogue/<name>/<instance-id>
// with a leased key, keeps the lease alive while it runs, and revokes it on
// shutdown. Clients discover the live instances of a named catalogue and dial one
// of them. Crashed servers disappear when their lease expires.
package registry

import (
	"context"
	"sort"
	"time"
)

// KindCatalogue is the service kind catalogue servers register under.
const KindCatalogue = "catalogue"

// ServiceInfo describes a registered service instance.
//
// Several instances of the same catalogue can serve the same dataset at once,
// each with a unique InstanceID.
type ServiceInfo struct {
	// Kind identifies the service type, normally KindCatalogue
	Kind string `json:"kind"`

	// Name is the catalogue name (e.g., "network-model")
	Name string `json:"name"`

	// Version is the version of the dataset or server build
	Version string `json:"version"`

	// InstanceID is a unique identifier for this specific instance (typically UUID)
	InstanceID string `json:"instance_id"`

	// Endpoint is the gRPC address where the instance can be reached
	// Format: "host:port" for TCP (e.g., "localhost:50051")
	//         "unix:///path/to/socket" for Unix domain sockets
	Endpoint string `json:"endpoint"`

	// Metadata contains instance attributes such as the storage backend
	Metadata map[string]string `json:"metadata"`

	// StartedAt is the timestamp when this instance started
	StartedAt time.Time `json:"started_at"`
}

// Registry defines the service registration and discovery interface.
//
// Implementations must provide thread-safe access to registration, discovery,
// and watch capabilities.
type Registry interface {
	// Register adds this service instance to the registry and keeps it alive
	// until Deregister or Close.
	Register(ctx context.Context, info ServiceInfo) error

	// Deregister removes this service instance. Deregistering an unknown
	// instance is a no-op.
	Deregister(ctx context.Context, info ServiceInfo) error

	// Discover finds all live instances of a service by kind and name.
	Discover(ctx context.Context, kind, name string) ([]ServiceInfo, error)

	// DiscoverAll finds all live instances of a kind.
	DiscoverAll(ctx context.Context, kind string) ([]ServiceInfo, error)

	// Watch emits the current instance list immediately and again after every
	// change. The channel is closed when ctx is cancelled or the registry closed.
	Watch(ctx context.Context, kind, name string) (<-chan []ServiceInfo, error)

	// Close releases resources and stops keepalives.
	Close() error
}

// Config contains registry connection settings.
type Config struct {
	// Endpoints are the etcd endpoints (e.g., ["localhost:2379"])
	Endpoints []string `json:"endpoints" yaml:"endpoints"`

	// Namespace prefixes every key. Default: "gridsync"
	Namespace string `json:"namespace" yaml:"namespace"`

	// TTL is the lease TTL in seconds. Default: 30
	TTL int `json:"ttl" yaml:"ttl"`

	// TLS configures the etcd connection
	TLS *TLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// TLSConfig describes certificate files for a TLS connection.
type TLSConfig struct {
	// Enabled turns TLS on
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CertFile and KeyFile hold an optional client certificate; set both or neither
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`

	// CAFile holds the CA bundle; empty means the system roots
	CAFile string `json:"ca_file" yaml:"ca_file"`
}

// Newest orders instances by start time, most recent first, breaking ties by
// instance id so the order is stable.
func Newest(instances []ServiceInfo) []ServiceInfo {
	out := make([]ServiceInfo, len(instances))
	copy(out, instances)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].InstanceID < out[j].InstanceID
	})
	return out
}
