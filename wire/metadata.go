package wire

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// DataSource describes one upstream source the catalogue was built from.
type DataSource struct {
	Source    string    `json:"source" yaml:"source"`
	Version   string    `json:"version" yaml:"version"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Metadata describes the catalogue service.
type Metadata struct {
	Title       string       `json:"title" yaml:"title"`
	Version     string       `json:"version" yaml:"version"`
	DataSources []DataSource `json:"data_sources" yaml:"data_sources"`
}

// ToStruct encodes the metadata.
func (m *Metadata) ToStruct() (*structpb.Struct, error) {
	sources := make([]any, 0, len(m.DataSources))
	for _, ds := range m.DataSources {
		sources = append(sources, map[string]any{
			"source":    ds.Source,
			"version":   ds.Version,
			"timestamp": ds.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return structpb.NewStruct(map[string]any{
		"title":        m.Title,
		"version":      m.Version,
		"data_sources": sources,
	})
}

// MetadataFromStruct decodes metadata.
func MetadataFromStruct(s *structpb.Struct) (*Metadata, error) {
	raw := s.AsMap()
	m := &Metadata{
		Title:   stringField(raw, "title"),
		Version: stringField(raw, "version"),
	}
	list, _ := raw["data_sources"].([]any)
	for _, entry := range list {
		ds, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("wire: malformed data source")
		}
		source := DataSource{Source: stringField(ds, "source"), Version: stringField(ds, "version")}
		if ts := stringField(ds, "timestamp"); ts != "" {
			parsed, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return nil, fmt.Errorf("wire: data source %q timestamp: %w", source.Source, err)
			}
			source.Timestamp = parsed
		}
		m.DataSources = append(m.DataSources, source)
	}
	return m, nil
}
