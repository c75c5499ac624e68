// Package config provides configuration loading and management for
// fundustexture. It handles loading configuration from YAML files and
// provides default values matching the reference extraction setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Preprocessing parameters
	Preprocess struct {
		// TargetWidth and TargetHeight are the fixed resolution every
		// input image is resized to before texture analysis
		TargetWidth  int `yaml:"targetWidth"`
		TargetHeight int `yaml:"targetHeight"`
	} `yaml:"preprocess"`

	// Co-occurrence parameters
	GLCM struct {
		// Distance is the pixel offset used when pairing neighbors
		Distance int `yaml:"distance"`

		// AnglesDegrees lists the pairing directions in degrees
		AnglesDegrees []float64 `yaml:"anglesDegrees"`

		// Properties lists the texture properties to reduce each
		// co-occurrence matrix into, in output column order
		Properties []string `yaml:"properties"`
	} `yaml:"glcm"`

	// Batch parameters
	Batch struct {
		// NumWorkers specifies how many images are processed concurrently
		NumWorkers int `yaml:"numWorkers"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"batch"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default preprocessing parameters
	cfg.Preprocess.TargetWidth = 224
	cfg.Preprocess.TargetHeight = 224

	// Set default co-occurrence parameters
	cfg.GLCM.Distance = 1
	cfg.GLCM.AnglesDegrees = []float64{0, 45, 90, 135}
	cfg.GLCM.Properties = []string{
		"correlation", "homogeneity", "contrast", "energy", "dissimilarity",
	}

	// Set default batch parameters
	cfg.Batch.NumWorkers = runtime.NumCPU() // Use all available cores by default
	cfg.Batch.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
