package profile

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/depthcloud/internal/fsutil"
)

// ManifestName is the file written into every profile directory.
const ManifestName = "profile.yaml"

// manifest is the on-disk description of a profile, kept next to its map
// and mesh files so a directory can be inspected without the database.
type manifest struct {
	ID        int       `yaml:"id"`
	Name      string    `yaml:"name"`
	MapName   string    `yaml:"map_name,omitempty"`
	Meshes    []string  `yaml:"meshes,omitempty"`
	Default   bool      `yaml:"default,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	LastUsed  time.Time `yaml:"last_used,omitempty"`
}

func writeManifest(fsys fsutil.FileSystem, dir string, p *Profile) error {
	data, err := yaml.Marshal(&manifest{
		ID:        p.ID,
		Name:      p.Name,
		MapName:   p.MapName,
		Meshes:    p.Meshes,
		Default:   p.IsDefault,
		CreatedAt: p.CreatedAt,
		LastUsed:  p.LastUsed,
	})
	if err != nil {
		return fmt.Errorf("encode manifest for profile %d: %w", p.ID, err)
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create profile directory %s: %w", dir, err)
	}
	if err := fsys.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return fmt.Errorf("write manifest for profile %d: %w", p.ID, err)
	}
	return nil
}

// ReadManifest loads the manifest stored in a profile directory.
func ReadManifest(fsys fsutil.FileSystem, dir string) (*Profile, error) {
	data, err := fsys.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Join(dir, ManifestName), err)
	}
	return &Profile{
		ID:        m.ID,
		Name:      m.Name,
		MapName:   m.MapName,
		Meshes:    m.Meshes,
		IsDefault: m.Default,
		CreatedAt: m.CreatedAt,
		LastUsed:  m.LastUsed,
	}, nil
}
