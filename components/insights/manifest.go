package insights

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the placement manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

//go:embed defaults/placements.yaml defaults/layout.schema.json
var defaultsFS embed.FS

// PlacementManifest lists default widget positions.
type PlacementManifest struct {
	Version    string            `json:"version" yaml:"version"`
	Placements []WidgetPlacement `json:"placements" yaml:"placements"`
	Source     string            `json:"-" yaml:"-"`
}

// ReadPlacementManifest loads a manifest file from disk.
func ReadPlacementManifest(path string) (*PlacementManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("insights: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodePlacementManifest(f)
	if err != nil {
		return nil, fmt.Errorf("insights: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodePlacementManifest reads a manifest from any reader.
func DecodePlacementManifest(r io.Reader) (*PlacementManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc PlacementManifest
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("insights: manifest is empty")
		}
		return nil, fmt.Errorf("insights: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate rejects unknown versions, missing ids and duplicates.
func (doc *PlacementManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("insights: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Placements))
	for idx, p := range doc.Placements {
		if p.ID == "" {
			return fmt.Errorf("insights: manifest placement at index %d is missing id", idx)
		}
		if p.W <= 0 || p.H <= 0 {
			return fmt.Errorf("insights: manifest placement %s has an empty size", p.ID)
		}
		if _, exists := seen[p.ID]; exists {
			return fmt.Errorf("insights: manifest duplicates placement %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// Map indexes placements by widget id.
func (doc *PlacementManifest) Map() map[string]WidgetPlacement {
	out := make(map[string]WidgetPlacement, len(doc.Placements))
	for _, p := range doc.Placements {
		out[p.ID] = p
	}
	return out
}

// DefaultManifest decodes the embedded grid defaults.
func DefaultManifest() (*PlacementManifest, error) {
	data, err := defaultsFS.ReadFile("defaults/placements.yaml")
	if err != nil {
		return nil, fmt.Errorf("insights: embedded placements missing: %w", err)
	}
	return DecodePlacementManifest(bytes.NewReader(data))
}

// DefaultPlacements returns the embedded grid defaults indexed by widget id.
func DefaultPlacements() map[string]WidgetPlacement {
	doc, err := DefaultManifest()
	if err != nil {
		panic(err.Error())
	}
	return doc.Map()
}

// WritePlacementManifest encodes doc as YAML.
func WritePlacementManifest(w io.Writer, doc *PlacementManifest) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("insights: write manifest: %w", err)
	}
	return encoder.Close()
}
