package client

import (
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/graph"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer used for operation and batch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithMeter sets the meter the client's instruments are created from.
func WithMeter(meter metric.Meter) Option {
	return func(c *Client) {
		if meter != nil {
			c.meter = meter
		}
	}
}

// WithBatchSize sets the maximum number of identifiers per FetchByIds call.
// Values above the server limit are clamped to it.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithMaxConcurrentBatches bounds how many FetchByIds calls one pass keeps in flight.
func WithMaxConcurrentBatches(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrentBatches = n
		}
	}
}

// WithCallTimeout bounds every top-level operation. Zero means no timeout beyond
// the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.callTimeout = d
	}
}

// WithStore makes the client resolve into an existing store, e.g. one shared
// with another client. It cannot be combined with WithSchema or WithContainerEdges.
func WithStore(store *graph.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithSchema sets the relationship table for the client's store.
func WithSchema(schema *graph.Schema) Option {
	return func(c *Client) {
		c.schema = schema
	}
}

// WithContainerEdges overrides the container-edge flag of named relationships.
func WithContainerEdges(overrides map[string]bool) Option {
	return func(c *Client) {
		c.containerEdges = overrides
	}
}

// WithErrorObserver registers an observer for failed operations.
func WithErrorObserver(fn gridsync.ErrorObserver) Option {
	return func(c *Client) {
		c.observers.Add(fn)
	}
}

// WithTLS enables TLS for Dial.
func WithTLS(conf *tls.Config) Option {
	return func(c *Client) {
		c.dial.TLS = conf
	}
}

// WithToken sets a bearer token sent on every call made through Dial.
func WithToken(token string) Option {
	return func(c *Client) {
		c.dial.Token = token
	}
}

// WithDialOptions appends raw gRPC dial options for Dial.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dial.Extra = append(c.dial.Extra, opts...)
	}
}
