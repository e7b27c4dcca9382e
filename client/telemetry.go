package client

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zero-day-ai/gridsync/client"

// clientMetrics holds the OpenTelemetry instruments shared by every operation.
type clientMetrics struct {
	// rpcCalls counts catalogue calls, attributed by rpc name
	rpcCalls metric.Int64Counter

	// objectsReceived counts objects decoded from FetchByIds streams
	objectsReceived metric.Int64Counter

	// identifiersFailed counts identifiers reported in failed sets
	identifiersFailed metric.Int64Counter

	// expandPasses records the number of fetch passes per expansion
	expandPasses metric.Int64Histogram
}

func newClientMetrics(meter metric.Meter) (*clientMetrics, error) {
	m := &clientMetrics{}
	var err error

	m.rpcCalls, err = meter.Int64Counter(
		"gridsync.rpc.calls",
		metric.WithDescription("Catalogue RPC calls issued"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rpc counter: %w", err)
	}

	m.objectsReceived, err = meter.Int64Counter(
		"gridsync.objects.received",
		metric.WithDescription("Objects received from the catalogue"),
		metric.WithUnit("{object}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create objects counter: %w", err)
	}

	m.identifiersFailed, err = meter.Int64Counter(
		"gridsync.identifiers.failed",
		metric.WithDescription("Requested identifiers never returned by the catalogue"),
		metric.WithUnit("{identifier}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create failed counter: %w", err)
	}

	m.expandPasses, err = meter.Int64Histogram(
		"gridsync.expand.passes",
		metric.WithDescription("Fetch passes needed to reach a fixpoint"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create passes histogram: %w", err)
	}

	return m, nil
}
