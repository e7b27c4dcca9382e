package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/rpc"
	"github.com/zero-day-ai/gridsync/wire"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/metadata"
)

const (
	// DefaultBatchSize is the default number of identifiers per FetchByIds call.
	DefaultBatchSize = rpc.MaxIdentifiersPerCall

	// DefaultMaxConcurrentBatches is the default number of FetchByIds calls a
	// single pass keeps in flight.
	DefaultMaxConcurrentBatches = 4

	// OperationIDHeader carries the operation id of every call as gRPC metadata.
	OperationIDHeader = "x-gridsync-operation-id"
)

// Client drives graph assembly against one catalogue.
//
// Thread-safety: All methods are safe for concurrent use. Concurrent operations
// share the client's store; objects one operation adds are visible to the others.
type Client struct {
	transport Transport
	closer    io.Closer
	store     *graph.Store
	fetcher   *batchFetcher
	observers gridsync.Observers

	logger  *slog.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *clientMetrics

	batchSize            int
	maxConcurrentBatches int
	callTimeout          time.Duration
	schema               *graph.Schema
	containerEdges       map[string]bool
	dial                 rpc.DialOptions

	metadataMu        sync.Mutex
	metadata          *wire.Metadata
	metadataPopulated bool
}

// New creates a client over an existing transport.
func New(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, gridsync.NewConfigurationError("client.New",
			fmt.Errorf("%w: transport is required", gridsync.ErrInvalidConfig))
	}

	c := &Client{
		transport:            transport,
		logger:               slog.Default(),
		tracer:               tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:                metricnoop.NewMeterProvider().Meter(instrumentationName),
		batchSize:            DefaultBatchSize,
		maxConcurrentBatches: DefaultMaxConcurrentBatches,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.batchSize > rpc.MaxIdentifiersPerCall {
		c.batchSize = rpc.MaxIdentifiersPerCall
	}

	if c.store == nil {
		schema := c.schema
		if schema == nil {
			schema = graph.DefaultSchema()
		}
		if c.containerEdges != nil {
			var err error
			if schema, err = schema.WithContainerEdges(c.containerEdges); err != nil {
				return nil, err
			}
		}
		c.store = graph.NewStore(schema)
	} else if c.schema != nil || c.containerEdges != nil {
		return nil, gridsync.NewConfigurationError("client.New",
			fmt.Errorf("%w: WithStore cannot be combined with WithSchema or WithContainerEdges", gridsync.ErrInvalidConfig))
	}

	metrics, err := newClientMetrics(c.meter)
	if err != nil {
		return nil, gridsync.NewConfigurationError("client.New", err)
	}
	c.metrics = metrics

	c.fetcher = &batchFetcher{
		transport:     c.transport,
		store:         c.store,
		batchSize:     c.batchSize,
		maxConcurrent: c.maxConcurrentBatches,
		logger:        c.logger,
		tracer:        c.tracer,
		metrics:       c.metrics,
	}
	return c, nil
}

// Dial connects to the catalogue at endpoint and creates a client over the
// connection. Close releases the connection.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	var probe Client
	for _, opt := range opts {
		opt(&probe)
	}

	conn, err := rpc.Dial(ctx, endpoint, probe.dial)
	if err != nil {
		return nil, gridsync.NewTransportError("client.Dial", fmt.Errorf("%w: %v", gridsync.ErrTransport, err)).
			WithContext(map[string]any{"endpoint": endpoint})
	}

	c, err := New(rpc.NewTransport(conn), opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.closer = conn
	return c, nil
}

// Store returns the store the client resolves into.
func (c *Client) Store() *graph.Store { return c.store }

// AddErrorObserver registers an observer for failed operations.
func (c *Client) AddErrorObserver(fn gridsync.ErrorObserver) {
	c.observers.Add(fn)
}

// Close releases the connection opened by Dial. Clients created with New own no
// connection and Close is a no-op.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// operation tracks one top-level call.
type operation struct {
	name   string
	id     string
	logger *slog.Logger
	span   trace.Span
	start  time.Time
	cancel context.CancelFunc
}

func (c *Client) startOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	op := &operation{
		name:   "Client." + name,
		id:     uuid.New().String(),
		start:  time.Now(),
		cancel: func() {},
	}
	if c.callTimeout > 0 {
		ctx, op.cancel = context.WithTimeout(ctx, c.callTimeout)
	}

	ctx = metadata.AppendToOutgoingContext(ctx, OperationIDHeader, op.id)
	attrs = append(attrs, attribute.String("gridsync.operation_id", op.id))
	ctx, op.span = c.tracer.Start(ctx, "gridsync."+name, trace.WithAttributes(attrs...))
	op.logger = c.logger.With("operation", op.name, "operation_id", op.id)

	op.logger.DebugContext(ctx, "operation started")
	return ctx, op
}

func (op *operation) end(ctx context.Context, err error) {
	defer op.cancel()
	defer op.span.End()

	elapsed := time.Since(op.start)
	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.logger.DebugContext(ctx, "operation failed", "duration", elapsed, "error", err)
		return
	}
	op.span.SetStatus(codes.Ok, "")
	op.logger.DebugContext(ctx, "operation complete", "duration", elapsed)
}

// finish ends op and wraps the outcome in a Result, notifying observers on failure.
func finish[T any](c *Client, ctx context.Context, op *operation, v T, err error) gridsync.Result[T] {
	op.end(ctx, err)
	return gridsync.Complete(&c.observers, v, err)
}

// joinErrors returns nil, the single error, or all of them joined.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
