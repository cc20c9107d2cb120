// Package config loads the YAML settings that drive an autocrop run.
//
// Example file:
//
//	policy: rejection
//	rejection_threshold: 2
//	value_scale: 65535
//	tolerance: 1
//	warn_threshold_percent: 40
//	luminance: min
//	output_dir: cropped
//	reuse_rectangle: true
//
// Every field is optional; missing fields keep the values from Default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/stack-autocrop/internal/autocrop"
	"github.com/ironsheep/stack-autocrop/internal/imaging"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config holds the settings for one crop run.
type Config struct {
	// Policy is "coverage" (valid when > 0) or "rejection" (valid when
	// <= RejectionThreshold).
	Policy             string  `yaml:"policy"`
	RejectionThreshold float64 `yaml:"rejection_threshold"`

	// ValueScale multiplies normalized pixel values, so a rejection map
	// stored as 16-bit counts can be compared against whole-number
	// thresholds with a scale of 65535.
	ValueScale float64 `yaml:"value_scale"`

	// Tolerance is how many consecutive invalid pixels the seed scan steps
	// over.
	Tolerance int `yaml:"tolerance"`

	WarnThresholdPercent float64 `yaml:"warn_threshold_percent"`

	// Luminance picks how color coverage maps become one value per pixel:
	// min, max or luminance.
	Luminance string `yaml:"luminance"`

	OutputDir      string `yaml:"output_dir"`
	ReuseRectangle bool   `yaml:"reuse_rectangle"`
}

// Default returns positive-coverage validity with no scan tolerance and a
// 50% warning threshold.
func Default() *Config {
	return &Config{
		Policy:               "coverage",
		ValueScale:           1,
		WarnThresholdPercent: autocrop.DefaultWarnPercent,
		Luminance:            string(imaging.ReduceMin),
	}
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := strings.ToLower(filepath.Ext(cleanPath)); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
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

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if _, err := autocrop.ParsePolicy(c.Policy, c.RejectionThreshold); err != nil {
		return err
	}
	if _, err := imaging.ParseReduction(c.Luminance); err != nil {
		return err
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %d", c.Tolerance)
	}
	if c.WarnThresholdPercent < 0 || c.WarnThresholdPercent > 100 {
		return fmt.Errorf("warn_threshold_percent must be between 0 and 100, got %g", c.WarnThresholdPercent)
	}
	if c.ValueScale < 0 {
		return fmt.Errorf("value_scale must be non-negative, got %g", c.ValueScale)
	}
	return nil
}

// SolveOptions converts the config into solver options.
func (c *Config) SolveOptions() (autocrop.Options, error) {
	policy, err := autocrop.ParsePolicy(c.Policy, c.RejectionThreshold)
	if err != nil {
		return autocrop.Options{}, err
	}
	return autocrop.Options{
		Policy:      policy,
		Tolerance:   c.Tolerance,
		WarnPercent: c.WarnThresholdPercent,
	}, nil
}

// Reduction returns the configured color reduction.
func (c *Config) Reduction() imaging.Reduction {
	r, err := imaging.ParseReduction(c.Luminance)
	if err != nil {
		return imaging.ReduceMin
	}
	return r
}
