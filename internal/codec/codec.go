package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"meshplan/internal/domain"
	"meshplan/internal/validation"
)

// Importer reads discovery snapshots from a serialized form
type Importer interface {
	Parse(r io.Reader) (*domain.Snapshot, error)
	Format() string
}

// Exporter writes discovery snapshots
type Exporter interface {
	Export(snapshot *domain.Snapshot, w io.Writer) error
	Format() string
}

// PlanExporter writes finished plans
type PlanExporter interface {
	ExportPlan(plan *domain.Plan, w io.Writer) error
	Format() string
}

// Codec is a format that can read and write snapshots and write plans
type Codec interface {
	Importer
	Exporter
	PlanExporter
}

// ForFormat returns the codec for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ForPath picks a codec from a file extension, defaulting to YAML
func ForPath(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONCodec()
	}
	return NewYAMLCodec()
}

// normalize fills in roles and regions omitted from a hand-written snapshot
// and validates the result
func normalize(s *domain.Snapshot) (*domain.Snapshot, error) {
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.RawName == "" {
			n.RawName = n.ID
		}
		_, region, role := domain.Classify(n.RawName)
		if n.Role == "" {
			n.Role = role
		}
		if n.Region == nil {
			n.Region = region
		}
	}
	if s.Nodes == nil {
		s.Nodes = []domain.Node{}
	}
	if s.Edges == nil {
		s.Edges = []domain.Edge{}
	}

	if err := validation.Snapshot(s.Nodes, s.Edges); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return s, nil
}
