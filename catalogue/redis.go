package catalogue

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/wire"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Prefix namespaces every key. Default: "gridsync"
	Prefix string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisBackend is a Backend stored in Redis.
//
// Key layout, under the configured prefix:
//
//	<prefix>:object:<mrid>                 protojson-encoded object Struct
//	<prefix>:members:<state>:<container>   set of member mRIDs
//	<prefix>:kind:<kind>                   set of mRIDs of that kind
//	<prefix>:metadata                      protojson-encoded metadata Struct
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to Redis and returns a backend using it.
func NewRedisBackend(opts RedisOptions) (*RedisBackend, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = "gridsync"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBackend{client: client, prefix: opts.Prefix}, nil
}

func (b *RedisBackend) objectKey(mrid string) string {
	return fmt.Sprintf("%s:object:%s", b.prefix, mrid)
}

func (b *RedisBackend) membersKey(state wire.NetworkState, container string) string {
	return fmt.Sprintf("%s:members:%s:%s", b.prefix, state, container)
}

func (b *RedisBackend) kindKey(kind cim.Kind) string {
	return fmt.Sprintf("%s:kind:%s", b.prefix, kind)
}

func (b *RedisBackend) metadataKey() string {
	return b.prefix + ":metadata"
}

// Put implements Backend.
func (b *RedisBackend) Put(ctx context.Context, objs ...*wire.Object) error {
	for _, obj := range objs {
		if err := obj.Validate(); err != nil {
			return err
		}

		old, err := b.Get(ctx, obj.MRID)
		if err != nil {
			return err
		}

		s, err := obj.ToStruct()
		if err != nil {
			return err
		}
		data, err := protojson.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal object %s: %w", obj.MRID, err)
		}

		_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if old != nil {
				for state, containers := range memberships(old) {
					for _, c := range containers {
						pipe.SRem(ctx, b.membersKey(state, c), old.MRID)
					}
				}
				pipe.SRem(ctx, b.kindKey(old.Kind), old.MRID)
			}

			pipe.Set(ctx, b.objectKey(obj.MRID), data, 0)
			for state, containers := range memberships(obj) {
				for _, c := range containers {
					pipe.SAdd(ctx, b.membersKey(state, c), obj.MRID)
				}
			}
			pipe.SAdd(ctx, b.kindKey(obj.Kind), obj.MRID)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to store object %s: %w", obj.MRID, err)
		}
	}
	return nil
}

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, mrid string) (*wire.Object, error) {
	data, err := b.client.Get(ctx, b.objectKey(mrid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get object %s: %w", mrid, err)
	}
	return decodeObject(mrid, data)
}

// Members implements Backend.
func (b *RedisBackend) Members(ctx context.Context, containerID string, state wire.NetworkState) ([]string, error) {
	ids, err := b.client.SMembers(ctx, b.membersKey(state, containerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read members of %s: %w", containerID, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// OfKinds implements Backend.
func (b *RedisBackend) OfKinds(ctx context.Context, kinds ...cim.Kind) ([]*wire.Object, error) {
	if len(kinds) == 0 {
		return nil, nil
	}

	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = b.kindKey(k)
	}
	ids, err := b.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read kind index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	objectKeys := make([]string, len(ids))
	for i, id := range ids {
		objectKeys[i] = b.objectKey(id)
	}
	values, err := b.client.MGet(ctx, objectKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read objects: %w", err)
	}

	out := make([]*wire.Object, 0, len(values))
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			// Index entry without an object; skip it.
			continue
		}
		obj, err := decodeObject(ids[i], []byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// SetMetadata implements Backend.
func (b *RedisBackend) SetMetadata(ctx context.Context, md *wire.Metadata) error {
	if md == nil {
		md = &wire.Metadata{}
	}
	s, err := md.ToStruct()
	if err != nil {
		return err
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := b.client.Set(ctx, b.metadataKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}
	return nil
}

// Metadata implements Backend.
func (b *RedisBackend) Metadata(ctx context.Context) (*wire.Metadata, error) {
	data, err := b.client.Get(ctx, b.metadataKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &wire.Metadata{}, nil
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return wire.MetadataFromStruct(s)
}

// Close closes the Redis connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func decodeObject(mrid string, data []byte) (*wire.Object, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal object %s: %w", mrid, err)
	}
	return wire.ObjectFromStruct(s)
}
