package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Built-in fallbacks used when a field is absent from the JSON file.
const (
	defaultMinFrameBufferBytes    = 500
	defaultFrameCombination       = 5
	defaultWindowsPerTimeSlot     = 4
	defaultDBSCANEps              = 0.15
	defaultDBSCANMinSamples       = 3
	defaultMaxWindowGap           = 2
	defaultHumanClusterSize       = 10.0
	defaultStationaryDisplacement = 0.5
)

// TuningConfig holds the analysis parameters. Every field is optional; the
// Get* methods fall back to the built-in defaults for fields left nil.
type TuningConfig struct {
	// Decoder params
	MinFrameBufferBytes *int `json:"min_frame_buffer_bytes,omitempty"`

	// Window params
	FrameCombination   *int `json:"frame_combination,omitempty"`
	WindowsPerTimeSlot *int `json:"windows_per_time_slot,omitempty"`

	// Clustering params (standardized units)
	DBSCANEps        *float64 `json:"dbscan_eps,omitempty"`
	DBSCANMinSamples *int     `json:"dbscan_min_samples,omitempty"`

	// Classifier params
	MaxWindowGap           *int     `json:"max_window_gap,omitempty"`
	HumanClusterSize       *float64 `json:"human_cluster_size,omitempty"`
	StationaryDisplacement *float64 `json:"stationary_displacement,omitempty"` // metres
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// built-in default.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MinFrameBufferBytes:    ptrInt(defaultMinFrameBufferBytes),
		FrameCombination:       ptrInt(defaultFrameCombination),
		WindowsPerTimeSlot:     ptrInt(defaultWindowsPerTimeSlot),
		DBSCANEps:              ptrFloat64(defaultDBSCANEps),
		DBSCANMinSamples:       ptrInt(defaultDBSCANMinSamples),
		MaxWindowGap:           ptrInt(defaultMaxWindowGap),
		HumanClusterSize:       ptrFloat64(defaultHumanClusterSize),
		StationaryDisplacement: ptrFloat64(defaultStationaryDisplacement),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/radar/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MinFrameBufferBytes != nil && *c.MinFrameBufferBytes < 36 {
		return fmt.Errorf("min_frame_buffer_bytes must be at least one frame header (36), got %d", *c.MinFrameBufferBytes)
	}
	if c.FrameCombination != nil && *c.FrameCombination < 1 {
		return fmt.Errorf("frame_combination must be positive, got %d", *c.FrameCombination)
	}
	if c.WindowsPerTimeSlot != nil && *c.WindowsPerTimeSlot < 1 {
		return fmt.Errorf("windows_per_time_slot must be positive, got %d", *c.WindowsPerTimeSlot)
	}
	if c.DBSCANEps != nil && *c.DBSCANEps <= 0 {
		return fmt.Errorf("dbscan_eps must be positive, got %f", *c.DBSCANEps)
	}
	if c.DBSCANMinSamples != nil && *c.DBSCANMinSamples < 1 {
		return fmt.Errorf("dbscan_min_samples must be positive, got %d", *c.DBSCANMinSamples)
	}
	if c.MaxWindowGap != nil && *c.MaxWindowGap < 1 {
		return fmt.Errorf("max_window_gap must be positive, got %d", *c.MaxWindowGap)
	}
	if c.HumanClusterSize != nil && *c.HumanClusterSize < 0 {
		return fmt.Errorf("human_cluster_size must be non-negative, got %f", *c.HumanClusterSize)
	}
	if c.StationaryDisplacement != nil && *c.StationaryDisplacement < 0 {
		return fmt.Errorf("stationary_displacement must be non-negative, got %f", *c.StationaryDisplacement)
	}
	return nil
}

// GetMinFrameBufferBytes returns the min_frame_buffer_bytes value or the default.
func (c *TuningConfig) GetMinFrameBufferBytes() int {
	if c.MinFrameBufferBytes == nil {
		return defaultMinFrameBufferBytes
	}
	return *c.MinFrameBufferBytes
}

// GetFrameCombination returns the frame_combination value or the default.
func (c *TuningConfig) GetFrameCombination() int {
	if c.FrameCombination == nil {
		return defaultFrameCombination
	}
	return *c.FrameCombination
}

// GetWindowsPerTimeSlot returns the windows_per_time_slot value or the default.
func (c *TuningConfig) GetWindowsPerTimeSlot() int {
	if c.WindowsPerTimeSlot == nil {
		return defaultWindowsPerTimeSlot
	}
	return *c.WindowsPerTimeSlot
}

// GetDBSCANEps returns the dbscan_eps value or the default.
func (c *TuningConfig) GetDBSCANEps() float64 {
	if c.DBSCANEps == nil {
		return defaultDBSCANEps
	}
	return *c.DBSCANEps
}

// GetDBSCANMinSamples returns the dbscan_min_samples value or the default.
func (c *TuningConfig) GetDBSCANMinSamples() int {
	if c.DBSCANMinSamples == nil {
		return defaultDBSCANMinSamples
	}
	return *c.DBSCANMinSamples
}

// GetMaxWindowGap returns the max_window_gap value or the default.
func (c *TuningConfig) GetMaxWindowGap() int {
	if c.MaxWindowGap == nil {
		return defaultMaxWindowGap
	}
	return *c.MaxWindowGap
}

// GetHumanClusterSize returns the human_cluster_size value or the default.
func (c *TuningConfig) GetHumanClusterSize() float64 {
	if c.HumanClusterSize == nil {
		return defaultHumanClusterSize
	}
	return *c.HumanClusterSize
}

// GetStationaryDisplacement returns the stationary_displacement value or the default.
func (c *TuningConfig) GetStationaryDisplacement() float64 {
	if c.StationaryDisplacement == nil {
		return defaultStationaryDisplacement
	}
	return *c.StationaryDisplacement
}
