// Package config loads recorder options from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents recorder configuration options
type Config struct {
	// DeleteSuccessful removes the recordings of passing tests
	DeleteSuccessful bool `yaml:"delete_successful"`

	// Module names the capture collaborator to bind
	Module string `yaml:"module"`

	// Template overrides the per-test report layout
	Template string `yaml:"template"`

	// AnimateSlides enables slide transitions in per-test reports
	AnimateSlides bool `yaml:"animate_slides"`

	// OutputDir is the root directory runs are recorded into
	OutputDir string `yaml:"output_dir"`

	// MaxSlides bounds captured steps per test
	MaxSlides int `yaml:"max_slides"`

	// CaptionColor is the accent color of step captions
	CaptionColor string `yaml:"caption_color"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		DeleteSuccessful: true,
		Module:           "WebDriver",
		AnimateSlides:    true,
		OutputDir:        "_output",
		MaxSlides:        1000,
		CaptionColor:     "#3498db",
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys absent from the file keep their defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option ranges
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.MaxSlides < 1 || c.MaxSlides > 1000 {
		return fmt.Errorf("max_slides must be between 1 and 1000, got %d", c.MaxSlides)
	}
	return nil
}
