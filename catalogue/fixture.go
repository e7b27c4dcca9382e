package catalogue

import (
	"context"
	"fmt"
	"os"

	"github.com/zero-day-ai/gridsync/wire"
	"gopkg.in/yaml.v3"
)

// Fixture is a catalogue dataset as written in YAML:
//
//	metadata:
//	  title: Example network
//	  version: "1"
//	  data_sources:
//	    - source: gis
//	      version: "2024.1"
//	      timestamp: 2024-01-01T00:00:00Z
//	objects:
//	  - mrid: f001
//	    kind: Feeder
//	    fields:
//	      name: Feeder 1
//	    references:
//	      - relationship: Feeder.normalEnergizingSubstation
//	        target: s001
type Fixture struct {
	Metadata *wire.Metadata `yaml:"metadata"`
	Objects  []*wire.Object `yaml:"objects"`
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture parses and validates YAML fixture data.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture YAML: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Objects))
	for i, obj := range f.Objects {
		if obj == nil {
			return nil, fmt.Errorf("fixture object %d is empty", i)
		}
		if err := obj.Validate(); err != nil {
			return nil, fmt.Errorf("fixture object %d: %w", i, err)
		}
		if _, dup := seen[obj.MRID]; dup {
			return nil, fmt.Errorf("fixture object %d: duplicate mrid %q", i, obj.MRID)
		}
		seen[obj.MRID] = struct{}{}
	}
	return &f, nil
}

// Apply stores the fixture's objects and metadata in backend.
func (f *Fixture) Apply(ctx context.Context, backend Backend) error {
	if err := backend.Put(ctx, f.Objects...); err != nil {
		return err
	}
	if f.Metadata != nil {
		return backend.SetMetadata(ctx, f.Metadata)
	}
	return nil
}
