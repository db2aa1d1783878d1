// Package catalog reads and writes plant catalog files in TOML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// FileVersion is the catalog file format written by Save.
const FileVersion = 1

//go:embed plants.toml
var defaultCatalog []byte

// File is the on-disk catalog layout.
type File struct {
	Version int              `toml:"version"`
	Plants  []core.PlantType `toml:"plant"`
}

// Parse decodes and validates a catalog file.
func Parse(data []byte) ([]core.PlantType, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if f.Version > FileVersion {
		return nil, fmt.Errorf("parsing catalog: unsupported version %d", f.Version)
	}

	seen := make(map[string]bool, len(f.Plants))
	for i := range f.Plants {
		pt := &f.Plants[i]
		pt.ID = strings.TrimSpace(pt.ID)
		pt.Name = strings.TrimSpace(pt.Name)
		if pt.ID == "" {
			return nil, fmt.Errorf("parsing catalog: plant %d has no id", i+1)
		}
		if seen[pt.ID] {
			return nil, fmt.Errorf("parsing catalog: duplicate plant id %q", pt.ID)
		}
		seen[pt.ID] = true
		if pt.Name == "" {
			return nil, fmt.Errorf("parsing catalog: plant %q has no name", pt.ID)
		}
		if pt.PointsToBloom <= 0 {
			return nil, fmt.Errorf("parsing catalog: plant %q: points_to_bloom %d: %w", pt.ID, pt.PointsToBloom, core.ErrInvalidThreshold)
		}
	}
	return f.Plants, nil
}

// Default returns the built-in catalog.
func Default() []core.PlantType {
	types, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return types
}

// Load reads a catalog file from path.
func Load(path string) ([]core.PlantType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Save writes types to path atomically (write temp + rename).
func Save(path string, types []core.PlantType) error {
	data, err := toml.Marshal(File{Version: FileVersion, Plants: types})
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp catalog file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming catalog file: %w", err)
	}
	return nil
}

// Find looks a plant up by id or display name, ignoring case. When nothing
// matches it returns up to three close ids instead.
func Find(types []core.PlantType, query string) (core.PlantType, []string, bool) {
	q := strings.TrimSpace(query)
	key := core.NormalizeLabel(q)
	for _, pt := range types {
		if strings.EqualFold(pt.ID, q) || strings.EqualFold(pt.Name, q) || pt.ID == key {
			return pt, nil, true
		}
	}

	ids := make([]string, len(types))
	for i, pt := range types {
		ids[i] = pt.ID
	}
	return core.PlantType{}, core.Suggest(key, ids, 3), false
}
