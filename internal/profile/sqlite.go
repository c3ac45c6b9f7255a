package profile

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/depthcloud/internal/fsutil"
	"github.com/banshee-data/depthcloud/internal/monitoring"
	"github.com/banshee-data/depthcloud/internal/security"
	"github.com/banshee-data/depthcloud/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var logf = monitoring.Component("profile")

// MemoryDB opens a private in-memory database. Useful for tests and dry runs.
const MemoryDB = ":memory:"

// Options configures Open.
type Options struct {
	// Dir holds one subdirectory per profile.
	Dir string
	// DBPath is the SQLite database file, or MemoryDB.
	DBPath string
	// Clock stamps CreatedAt and LastUsed. Defaults to the wall clock.
	Clock timeutil.Clock
	// FS is used for profile directories. Defaults to the OS filesystem.
	FS fsutil.FileSystem
}

// SQLiteRepository is a Repository persisted in SQLite.
type SQLiteRepository struct {
	db    *sql.DB
	dir   string
	clock timeutil.Clock
	fs    fsutil.FileSystem

	mu       sync.Mutex
	profiles map[int]*Profile
	selected int
	removed  map[int]bool
}

var _ Repository = (*SQLiteRepository)(nil)

// Open opens the database, applies pending migrations and reads the
// persisted profiles into the working set.
func Open(ctx context.Context, opts Options) (*SQLiteRepository, error) {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.FS == nil {
		opts.FS = fsutil.OSFileSystem{}
	}
	if opts.DBPath == "" {
		opts.DBPath = filepath.Join(opts.Dir, "profiles.db")
	}
	if opts.DBPath != MemoryDB {
		if err := opts.FS.MkdirAll(filepath.Dir(opts.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open profile database: %w", err)
	}
	// One connection: writes are serialised anyway and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	if opts.DBPath != MemoryDB {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	r := &SQLiteRepository{
		db:       db,
		dir:      opts.Dir,
		clock:    opts.Clock,
		fs:       opts.FS,
		profiles: make(map[int]*Profile),
		removed:  make(map[int]bool),
	}
	if err := r.Read(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// migrateUp applies the embedded migrations. The migrate instance is not
// closed because that would close db.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// Close closes the database. Unsaved changes are lost.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Path() string { return r.dir }

func (r *SQLiteRepository) Selected() *Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[r.selected]; ok {
		return p.clone()
	}
	return nil
}

func (r *SQLiteRepository) Read(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, name, map_name, meshes_json, is_default, created_at, last_used
		FROM environment_profiles`)
	if err != nil {
		return fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[int]*Profile)
	for rows.Next() {
		var (
			p                   Profile
			meshesJSON          string
			createdAt, lastUsed int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.MapName, &meshesJSON, &p.IsDefault, &createdAt, &lastUsed); err != nil {
			return fmt.Errorf("scan profile: %w", err)
		}
		if err := json.Unmarshal([]byte(meshesJSON), &p.Meshes); err != nil {
			return fmt.Errorf("decode meshes of profile %d: %w", p.ID, err)
		}
		if len(p.Meshes) == 0 {
			p.Meshes = nil
		}
		p.CreatedAt = fromUnixNanos(createdAt)
		p.LastUsed = fromUnixNanos(lastUsed)
		profiles[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate profiles: %w", err)
	}

	var selected int
	err = r.db.QueryRowContext(ctx, `SELECT profile_id FROM environment_selection WHERE singleton = 1`).Scan(&selected)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query selection: %w", err)
	}
	if _, ok := profiles[selected]; !ok {
		selected = 0
	}

	r.mu.Lock()
	r.profiles = profiles
	r.selected = selected
	r.removed = make(map[int]bool)
	r.mu.Unlock()
	return nil
}

func (r *SQLiteRepository) GetAll() []*Profile {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		all = append(all, p.clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].LastUsed.Equal(all[j].LastUsed) {
			return all[i].LastUsed.After(all[j].LastUsed)
		}
		return all[i].ID < all[j].ID
	})
	return all
}

// Save replaces the persisted profiles with the working set in a single
// transaction, then removes the directories of deleted profiles and writes
// a manifest for every remaining one.
func (r *SQLiteRepository) Save(ctx context.Context) error {
	r.mu.Lock()
	profiles := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		profiles = append(profiles, p.clone())
	}
	selected := r.selected
	removed := make([]int, 0, len(r.removed))
	for id := range r.removed {
		removed = append(removed, id)
	}
	r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin profiles tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	// Deleting first keeps the unique name index happy when two profiles
	// swap names.
	if _, err := tx.ExecContext(ctx, `DELETE FROM environment_profiles`); err != nil {
		return fmt.Errorf("clear profiles: %w", err)
	}
	for _, p := range profiles {
		meshes := p.Meshes
		if meshes == nil {
			meshes = []string{}
		}
		meshesJSON, err := json.Marshal(meshes)
		if err != nil {
			return fmt.Errorf("encode meshes of profile %d: %w", p.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO environment_profiles (
				profile_id, name, map_name, meshes_json, is_default, created_at, last_used
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.MapName, string(meshesJSON), p.IsDefault,
			toUnixNanos(p.CreatedAt), toUnixNanos(p.LastUsed),
		)
		if err != nil {
			return fmt.Errorf("insert profile %d: %w", p.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM environment_selection`); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	if selected != 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO environment_selection (singleton, profile_id) VALUES (1, ?)`, selected); err != nil {
			return fmt.Errorf("store selection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profiles: %w", err)
	}

	for _, id := range removed {
		if err := r.fs.RemoveAll(r.PathFor(id)); err != nil {
			return fmt.Errorf("remove directory of profile %d: %w", id, err)
		}
	}
	for _, p := range profiles {
		if err := writeManifest(r.fs, r.PathFor(p.ID), p); err != nil {
			return err
		}
	}

	r.mu.Lock()
	for _, id := range removed {
		delete(r.removed, id)
	}
	r.mu.Unlock()

	logf("saved %d profiles (%d removed)", len(profiles), len(removed))
	return nil
}

func (r *SQLiteRepository) Create(name string) (*Profile, error) {
	return r.create(name, false)
}

func (r *SQLiteRepository) CreateDefault() (*Profile, error) {
	r.mu.Lock()
	for _, p := range r.profiles {
		if p.IsDefault {
			r.mu.Unlock()
			return nil, fmt.Errorf("default profile %d exists: %w", p.ID, ErrDuplicateName)
		}
	}
	r.mu.Unlock()
	return r.create(DefaultName, true)
}

func (r *SQLiteRepository) create(name string, isDefault bool) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.containsNameLocked(name, 0) {
		return nil, fmt.Errorf("create %q: %w", name, ErrDuplicateName)
	}
	now := r.clock.Now()
	p := &Profile{
		ID:        r.newIDLocked(),
		Name:      name,
		IsDefault: isDefault,
		CreatedAt: now,
		LastUsed:  now,
	}
	r.profiles[p.ID] = p
	return p.clone(), nil
}

func (r *SQLiteRepository) GetDefault() (*Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.IsDefault {
			return p.clone(), true
		}
	}
	return nil, false
}

func (r *SQLiteRepository) Select(id int) error {
	return r.update(id, func(p *Profile) error {
		r.selected = id
		p.LastUsed = r.clock.Now()
		return nil
	})
}

// SetMapName sets the map file, relative to the profile directory. An empty
// name clears it.
func (r *SQLiteRepository) SetMapName(id int, mapName string) error {
	if mapName != "" {
		if err := security.ValidateRelativePath(mapName); err != nil {
			return fmt.Errorf("profile %d map: %w", id, err)
		}
	}
	return r.update(id, func(p *Profile) error {
		p.MapName = mapName
		return nil
	})
}

// SetMeshes replaces the mesh files, relative to the profile directory.
func (r *SQLiteRepository) SetMeshes(id int, meshes []string) error {
	if err := security.ValidateRelativePaths(meshes); err != nil {
		return fmt.Errorf("profile %d meshes: %w", id, err)
	}
	return r.update(id, func(p *Profile) error {
		p.Meshes = append([]string(nil), meshes...)
		return nil
	})
}

// Rename changes the profile's name. Renaming a profile to a different
// casing of its own name is allowed.
func (r *SQLiteRepository) Rename(id int, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	return r.update(id, func(p *Profile) error {
		if r.containsNameLocked(newName, id) {
			return fmt.Errorf("rename profile %d to %q: %w", id, newName, ErrDuplicateName)
		}
		p.Name = newName
		return nil
	})
}

func (r *SQLiteRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[id]; !ok {
		return fmt.Errorf("delete profile %d: %w", id, ErrNotFound)
	}
	delete(r.profiles, id)
	r.removed[id] = true
	if r.selected == id {
		r.selected = 0
	}
	return nil
}

// update runs fn on profile id with the lock held.
func (r *SQLiteRepository) update(id int, fn func(p *Profile) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return fn(p)
}

func (r *SQLiteRepository) ContainsName(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.containsNameLocked(strings.TrimSpace(name), 0)
}

// containsNameLocked ignores the profile with id except, so a profile never
// conflicts with itself.
func (r *SQLiteRepository) containsNameLocked(name string, except int) bool {
	for id, p := range r.profiles {
		if id != except && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (r *SQLiteRepository) NewID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newIDLocked()
}

func (r *SQLiteRepository) newIDLocked() int {
	maxID := 0
	for id := range r.profiles {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func (r *SQLiteRepository) FindByName(name string) (*Profile, bool) {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if strings.EqualFold(p.Name, name) {
			return p.clone(), true
		}
	}
	return nil, false
}

func (r *SQLiteRepository) PathFor(id int) string {
	return filepath.Join(r.dir, strconv.Itoa(id))
}

func (r *SQLiteRepository) Verify(id int) bool {
	r.mu.Lock()
	p, ok := r.profiles[id]
	if ok {
		p = p.clone()
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	dir := r.PathFor(id)
	if !r.fs.IsDir(dir) {
		return false
	}
	if p.MapName != "" && !r.fs.Exists(filepath.Join(dir, p.MapName)) {
		return false
	}
	for _, mesh := range p.Meshes {
		if !r.fs.Exists(filepath.Join(dir, mesh)) {
			return false
		}
	}
	return true
}

func toUnixNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
