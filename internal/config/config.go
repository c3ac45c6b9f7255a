package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/depthcloud.defaults.jsonc"

// Record layouts understood by the CLI.
const (
	RecordXYZ           = "xyz"
	RecordXYZConfidence = "xyz_confidence"
)

// Config is the root depthcloud configuration. Pointer fields distinguish
// "not set" from a zero value so partial files can be layered over the
// defaults returned by the Get* methods.
type Config struct {
	// Point buffers
	BufferCapacity *int    `json:"buffer_capacity,omitempty"`
	Stride         *int    `json:"stride,omitempty"`
	RecordType     *string `json:"record_type,omitempty"` // "xyz" or "xyz_confidence"

	// Snapshots
	SnapshotCompression *string `json:"snapshot_compression,omitempty"` // "none", "lz4", "zstd", "bg4_lz4"

	// Ingest
	MailboxDepth *int `json:"mailbox_depth,omitempty"`

	// Profiles
	ProfilesDir *string `json:"profiles_dir,omitempty"`
	ProfilesDB  *string `json:"profiles_db,omitempty"`

	// Grid box
	GridBoxDivisions          *int     `json:"gridbox_divisions,omitempty"`
	GridBoxBoxLineWidth       *float64 `json:"gridbox_box_line_width,omitempty"`
	GridBoxGridLineWidth      *float64 `json:"gridbox_grid_line_width,omitempty"`
	GridBoxDrawNearSide       *bool    `json:"gridbox_draw_near_side,omitempty"`
	GridBoxColliderMultiplier *float64 `json:"gridbox_collider_multiplier,omitempty"`
}

// EmptyConfig returns a Config with every field unset.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a .json or .jsonc file. Comments and
// trailing commas are stripped before decoding. Fields omitted from the
// file fall back to the Get* defaults.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json", ".jsonc":
	default:
		return nil, fmt.Errorf("config file must have .json or .jsonc extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Parse decodes and validates JSON or JSONC config content.
func Parse(data []byte) (*Config, error) {
	cfg := EmptyConfig()
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.BufferCapacity != nil && *c.BufferCapacity < 0 {
		return fmt.Errorf("buffer_capacity must be non-negative, got %d", *c.BufferCapacity)
	}

	if c.RecordType != nil {
		switch *c.RecordType {
		case RecordXYZ, RecordXYZConfidence:
		default:
			return fmt.Errorf("record_type must be %q or %q, got %q", RecordXYZ, RecordXYZConfidence, *c.RecordType)
		}
	}

	// Stride must cover the record's raw components.
	if c.Stride != nil {
		if need := recordComponents(c.GetRecordType()); *c.Stride < need {
			return fmt.Errorf("stride %d is smaller than the %d components of %s records", *c.Stride, need, c.GetRecordType())
		}
	}

	if c.SnapshotCompression != nil {
		switch *c.SnapshotCompression {
		case "", "none", "lz4", "zstd", "bg4_lz4":
		default:
			return fmt.Errorf("unknown snapshot_compression %q", *c.SnapshotCompression)
		}
	}

	if c.MailboxDepth != nil && *c.MailboxDepth != 1 {
		return fmt.Errorf("mailbox_depth must be 1 (single-slot mailboxes), got %d", *c.MailboxDepth)
	}

	if c.GridBoxDivisions != nil && *c.GridBoxDivisions < 1 {
		return fmt.Errorf("gridbox_divisions must be at least 1, got %d", *c.GridBoxDivisions)
	}
	if c.GridBoxBoxLineWidth != nil && *c.GridBoxBoxLineWidth <= 0 {
		return fmt.Errorf("gridbox_box_line_width must be positive, got %f", *c.GridBoxBoxLineWidth)
	}
	if c.GridBoxGridLineWidth != nil && *c.GridBoxGridLineWidth <= 0 {
		return fmt.Errorf("gridbox_grid_line_width must be positive, got %f", *c.GridBoxGridLineWidth)
	}
	if c.GridBoxColliderMultiplier != nil && *c.GridBoxColliderMultiplier < 0 {
		return fmt.Errorf("gridbox_collider_multiplier must be non-negative, got %f", *c.GridBoxColliderMultiplier)
	}

	return nil
}

func recordComponents(recordType string) int {
	if recordType == RecordXYZ {
		return 3
	}
	return 4
}

// GetBufferCapacity returns the buffer_capacity value or the default.
func (c *Config) GetBufferCapacity() int {
	if c.BufferCapacity == nil {
		return 76800
	}
	return *c.BufferCapacity
}

// GetStride returns the stride value or the record type's component count.
func (c *Config) GetStride() int {
	if c.Stride == nil {
		return recordComponents(c.GetRecordType())
	}
	return *c.Stride
}

// GetRecordType returns the record_type value or the default.
func (c *Config) GetRecordType() string {
	if c.RecordType == nil {
		return RecordXYZConfidence
	}
	return *c.RecordType
}

// GetSnapshotCompression returns the snapshot_compression value or the default.
func (c *Config) GetSnapshotCompression() string {
	if c.SnapshotCompression == nil {
		return "bg4_lz4"
	}
	return *c.SnapshotCompression
}

// GetMailboxDepth returns the mailbox_depth value or the default.
func (c *Config) GetMailboxDepth() int {
	if c.MailboxDepth == nil {
		return 1
	}
	return *c.MailboxDepth
}

// GetProfilesDir returns the profiles_dir value or the default.
func (c *Config) GetProfilesDir() string {
	if c.ProfilesDir == nil {
		return "profiles"
	}
	return *c.ProfilesDir
}

// GetProfilesDB returns the profiles_db value, defaulting to profiles.db
// inside the profiles directory.
func (c *Config) GetProfilesDB() string {
	if c.ProfilesDB == nil {
		return filepath.Join(c.GetProfilesDir(), "profiles.db")
	}
	return *c.ProfilesDB
}

// GetGridBoxDivisions returns the gridbox_divisions value or the default.
func (c *Config) GetGridBoxDivisions() int {
	if c.GridBoxDivisions == nil {
		return 4
	}
	return *c.GridBoxDivisions
}

// GetGridBoxBoxLineWidth returns the gridbox_box_line_width value or the default.
func (c *Config) GetGridBoxBoxLineWidth() float64 {
	if c.GridBoxBoxLineWidth == nil {
		return 0.05
	}
	return *c.GridBoxBoxLineWidth
}

// GetGridBoxGridLineWidth returns the gridbox_grid_line_width value or the default.
func (c *Config) GetGridBoxGridLineWidth() float64 {
	if c.GridBoxGridLineWidth == nil {
		return 0.01
	}
	return *c.GridBoxGridLineWidth
}

// GetGridBoxDrawNearSide returns the gridbox_draw_near_side value or the default.
func (c *Config) GetGridBoxDrawNearSide() bool {
	if c.GridBoxDrawNearSide == nil {
		return false
	}
	return *c.GridBoxDrawNearSide
}

// GetGridBoxColliderMultiplier returns the gridbox_collider_multiplier value or the default.
func (c *Config) GetGridBoxColliderMultiplier() float64 {
	if c.GridBoxColliderMultiplier == nil {
		return 10
	}
	return *c.GridBoxColliderMultiplier
}
