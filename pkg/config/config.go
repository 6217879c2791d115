// Package config provides pipeline configuration.
// Priority: defaults < config file < flags.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds all tripflow configuration.
type Config struct {
	Version int `yaml:"version"`

	Filter  FilterConfig  `yaml:"filter"`
	Clean   CleanConfig   `yaml:"clean"`
	Logging LoggingConfig `yaml:"logging"`
	Fetch   FetchConfig   `yaml:"fetch"`
}

// FilterConfig is the row-retention policy. The two requirements are
// independent toggles; both may be enabled at once.
type FilterConfig struct {
	// RequireStationIDs drops rows missing either station id.
	RequireStationIDs bool `yaml:"require_station_ids"`

	// RequireCoordinates drops rows missing any of the four coordinates.
	RequireCoordinates bool `yaml:"require_coordinates"`
}

// CleanConfig controls the cleaning run.
type CleanConfig struct {
	// Workers is the partition worker-pool size. 0 = NumCPU.
	Workers int `yaml:"workers"`

	// Compression is the Parquet codec: snappy | zstd | gzip | none.
	Compression string `yaml:"compression"`

	// BatchSize is the Arrow record batch size used when writing.
	BatchSize int `yaml:"batch_size"`
}

// LoggingConfig controls the run log.
type LoggingConfig struct {
	File string `yaml:"file"`
}

// FetchConfig controls archive download.
type FetchConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Filter: FilterConfig{
			RequireStationIDs:  true,
			RequireCoordinates: false,
		},
		Clean: CleanConfig{
			Workers:     runtime.NumCPU(),
			Compression: "snappy",
			BatchSize:   8192,
		},
		Logging: LoggingConfig{
			File: "logs/tripflow_clean.log",
		},
		Fetch: FetchConfig{
			Bucket: "tripdata",
			Region: "us-east-1",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Clean.Workers <= 0 {
		cfg.Clean.Workers = runtime.NumCPU()
	}
	if cfg.Clean.BatchSize <= 0 {
		cfg.Clean.BatchSize = 8192
	}

	return cfg, nil
}
