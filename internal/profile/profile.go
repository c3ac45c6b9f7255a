// Package profile stores environment profiles: named scan environments with
// an optional map file and a set of reconstructed meshes on disk.
//
// A Repository keeps an in-memory working set. Mutations only touch the
// working set until Save persists it; Read discards unsaved changes.
package profile

import (
	"context"
	"errors"
	"time"
)

// DefaultName is the name given to the profile created by CreateDefault.
const DefaultName = "Default"

var (
	ErrNotFound      = errors.New("profile: not found")
	ErrDuplicateName = errors.New("profile: name already in use")
	ErrEmptyName     = errors.New("profile: name is empty")
)

// Profile is one scan environment.
type Profile struct {
	ID        int
	Name      string
	MapName   string
	Meshes    []string
	IsDefault bool
	CreatedAt time.Time
	LastUsed  time.Time
}

func (p *Profile) clone() *Profile {
	c := *p
	c.Meshes = append([]string(nil), p.Meshes...)
	return &c
}

// Repository is the access point to environment profiles. Profiles returned
// by a Repository are copies; change them through the Repository methods.
type Repository interface {
	// Path is the directory holding one subdirectory per profile.
	Path() string
	// Selected returns the selected profile, or nil when none is selected.
	Selected() *Profile

	// Read replaces the working set with the persisted profiles.
	Read(ctx context.Context) error
	// GetAll returns every profile, most recently used first.
	GetAll() []*Profile
	// Save persists the working set, including profile directories.
	Save(ctx context.Context) error

	Create(name string) (*Profile, error)
	CreateDefault() (*Profile, error)
	GetDefault() (*Profile, bool)

	// Select makes id the selected profile and stamps its LastUsed time.
	Select(id int) error
	SetMapName(id int, mapName string) error
	SetMeshes(id int, meshes []string) error
	Rename(id int, newName string) error
	// Delete removes the profile. Its directory is removed on Save.
	Delete(id int) error

	// ContainsName reports whether a profile already uses name, ignoring
	// case and surrounding whitespace.
	ContainsName(name string) bool
	// NewID returns the id the next created profile will get.
	NewID() int
	FindByName(name string) (*Profile, bool)
	// PathFor is the directory of profile id.
	PathFor(id int) string
	// Verify reports whether the profile and every file it references exist.
	Verify(id int) bool
}
