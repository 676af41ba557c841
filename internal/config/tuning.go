// Package config loads filter tuning parameters from JSON files. Fields
// omitted from a file keep their built-in defaults, so partial configs
// are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/cloudnoise/internal/monitoring"
	"github.com/banshee-data/cloudnoise/internal/noise"
)

// DefaultConfigPath is the conventional location of the tuning defaults
// file, relative to the working directory.
const DefaultConfigPath = "config/tuning.defaults.json"

// FilterTuning is the on-disk schema for outlier filter parameters. All
// fields are optional; nil means "use the default".
type FilterTuning struct {
	Method     *string  `json:"method,omitempty"`     // "statistical" or "radius"
	MinK       *int     `json:"min_k,omitempty"`      // radius method
	Radius     *float64 `json:"radius,omitempty"`     // radius method
	MeanK      *int     `json:"mean_k,omitempty"`     // statistical method
	Multiplier *float64 `json:"multiplier,omitempty"` // statistical method
	Class      *int     `json:"class,omitempty"`      // noise classification code
	Threads    *int     `json:"threads,omitempty"`    // worker count
}

// EmptyFilterTuning returns a FilterTuning with all fields unset.
func EmptyFilterTuning() *FilterTuning {
	return &FilterTuning{}
}

// LoadFilterTuning loads a FilterTuning from a JSON file. The path must
// have a .json extension and the file must be under 1MB.
func LoadFilterTuning(path string) (*FilterTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyFilterTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all set fields carry legal values.
func (c *FilterTuning) Validate() error {
	if c.Method != nil {
		if _, err := noise.ParseMethod(*c.Method); err != nil {
			return err
		}
	}
	if c.MinK != nil && *c.MinK < 0 {
		return fmt.Errorf("min_k must be non-negative, got %d", *c.MinK)
	}
	if c.Radius != nil && *c.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %f", *c.Radius)
	}
	if c.MeanK != nil && *c.MeanK < 1 {
		return fmt.Errorf("mean_k must be at least 1, got %d", *c.MeanK)
	}
	if c.Multiplier != nil && *c.Multiplier < 0 {
		return fmt.Errorf("multiplier must be non-negative, got %f", *c.Multiplier)
	}
	if c.Class != nil && (*c.Class < 0 || *c.Class > 255) {
		return fmt.Errorf("class must be in 0..255, got %d", *c.Class)
	}
	return nil
}

// Apply merges the set fields onto base and returns the result. The
// thread count is not clamped here; noise.New normalizes it.
func (c *FilterTuning) Apply(base noise.Params) noise.Params {
	if c.Method != nil {
		m, err := noise.ParseMethod(*c.Method)
		if err != nil {
			// Validate catches this for loaded files; guard anyway for
			// hand-built configs.
			monitoring.Logf("config: %v; keeping method %v", err, base.Method)
		} else {
			base.Method = m
		}
	}
	if c.MinK != nil {
		base.MinK = *c.MinK
	}
	if c.Radius != nil {
		base.Radius = *c.Radius
	}
	if c.MeanK != nil {
		base.MeanK = *c.MeanK
	}
	if c.Multiplier != nil {
		base.Multiplier = *c.Multiplier
	}
	if c.Class != nil {
		base.Class = uint8(*c.Class)
	}
	if c.Threads != nil {
		base.Threads = *c.Threads
	}
	return base
}
