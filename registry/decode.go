package registry

import (
	"encoding/json"
	"log/slog"

	"go.etcd.io/etcd/api/v3/mvccpb"
)

// decodeInstances decodes registry values, skipping any that are not valid
// ServiceInfo JSON, and returns them newest first.
func decodeInstances(kvs []*mvccpb.KeyValue, logger *slog.Logger) []ServiceInfo {
	instances := make([]ServiceInfo, 0, len(kvs))
	for _, kv := range kvs {
		var info ServiceInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			if logger != nil {
				logger.Debug("skipping malformed registry entry", "key", string(kv.Key), "error", err)
			}
			continue
		}
		instances = append(instances, info)
	}
	return Newest(instances)
}
