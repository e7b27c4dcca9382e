package client

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/wire"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// batchFetcher turns a set of wanted identifiers into FetchByIds calls and feeds
// every streamed object into the store as it arrives.
type batchFetcher struct {
	transport     Transport
	store         *graph.Store
	batchSize     int
	maxConcurrent int
	logger        *slog.Logger
	tracer        trace.Tracer
	metrics       *clientMetrics
}

// fetchReport accumulates the outcome of one pass across its batches.
type fetchReport struct {
	mu       sync.Mutex
	received map[string]struct{}
	failed   map[string]struct{}
	errs     []error
}

func newFetchReport() *fetchReport {
	return &fetchReport{
		received: make(map[string]struct{}),
		failed:   make(map[string]struct{}),
	}
}

func (r *fetchReport) markReceived(mrid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received[mrid] = struct{}{}
}

func (r *fetchReport) markFailed(ids []string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.failed[id] = struct{}{}
	}
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// partition copies ids and splits the copy into consecutive batches of at most
// size identifiers. The batches never alias the caller's slice.
func partition(ids []string, size int) [][]string {
	snapshot := slices.Clone(ids)
	batches := make([][]string, 0, (len(snapshot)+size-1)/size)
	for len(snapshot) > 0 {
		n := min(size, len(snapshot))
		batches = append(batches, snapshot[:n:n])
		snapshot = snapshot[n:]
	}
	return batches
}

// fetch requests ids in batches and returns once every dispatched batch has
// finished. A failed batch marks its unseen identifiers failed and records the
// cause; it does not stop sibling batches.
func (f *batchFetcher) fetch(ctx context.Context, op string, ids []string) *fetchReport {
	report := newFetchReport()
	batches := partition(ids, f.batchSize)

	sem := make(chan struct{}, f.maxConcurrent)
	var wg sync.WaitGroup

	for i, batch := range batches {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			var rest []string
			for _, b := range batches[i:] {
				rest = append(rest, b...)
			}
			report.markFailed(rest, gridsync.FromRPCError(op, ctx.Err()))
			wg.Wait()
			return report
		}

		wg.Add(1)
		go func(n int, batch []string) {
			defer wg.Done()
			defer func() { <-sem }()
			f.fetchBatch(ctx, op, n, batch, report)
		}(i, batch)
	}

	wg.Wait()
	return report
}

func (f *batchFetcher) fetchBatch(ctx context.Context, op string, n int, batch []string, report *fetchReport) {
	ctx, span := f.tracer.Start(ctx, "gridsync.fetch_batch", trace.WithAttributes(
		attribute.Int("batch.index", n),
		attribute.Int("batch.size", len(batch)),
	))
	defer span.End()

	f.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("rpc", "FetchByIds")))

	seen := make(map[string]struct{}, len(batch))
	err := f.transport.FetchByIDs(ctx, batch, func(msg *wire.Object) error {
		seen[msg.MRID] = struct{}{}
		report.markReceived(msg.MRID)
		f.metrics.objectsReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(msg.Kind))))
		return f.ingest(ctx, op, msg)
	})
	if err == nil {
		span.SetAttributes(attribute.Int("batch.received", len(seen)))
		return
	}

	var unseen []string
	for _, id := range batch {
		if _, ok := seen[id]; !ok {
			unseen = append(unseen, id)
		}
	}

	cause := gridsync.FromRPCError(op, err)
	report.markFailed(unseen, cause)

	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())
	f.logger.WarnContext(ctx, "batch fetch failed",
		"operation", op,
		"batch", n,
		"size", len(batch),
		"unseen", len(unseen),
		"error", cause)
}

// ingest decodes msg and adds it to the store. A decode failure or an identifier
// conflict aborts the batch. Errors resolving the new object's own references are
// only logged, because the object itself was stored.
func (f *batchFetcher) ingest(ctx context.Context, op string, msg *wire.Object) error {
	obj, refs, err := wire.Decode(msg)
	if err != nil {
		return gridsync.NewValidationError(op, err).WithContext(map[string]any{"mrid": msg.MRID})
	}

	added, err := f.store.AddWithReferences(obj, refs)
	if err == nil {
		return nil
	}
	if !added {
		return err
	}

	f.logger.WarnContext(ctx, "unresolvable reference",
		"operation", op,
		"mrid", msg.MRID,
		"kind", msg.Kind,
		"error", err)
	return nil
}
