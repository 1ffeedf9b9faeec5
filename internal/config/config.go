// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// Package config loads the server configuration with koanf, layering
// three sources: struct defaults, an optional YAML file, and
// environment variables. Precedence is ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/logging"
	"github.com/pickplate/pickplate/internal/recommend"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pickplate/config.yaml",
	"/etc/pickplate/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "PICKPLATE_CONFIG"

// EnvPrefix scopes the environment variables the loader reads.
// PICKPLATE_LOGGING__LEVEL maps to logging.level.
const EnvPrefix = "PICKPLATE_"

// StorageConfig selects and tunes the persistence backend.
type StorageConfig struct {
	// Path is the BadgerDB directory.
	Path string `koanf:"path"`

	// InMemory swaps Badger for the in-memory repository. Development
	// only; nothing survives a restart.
	InMemory bool `koanf:"in_memory"`
}

// CacheConfig sizes the named cache instances.
type CacheConfig struct {
	ItemSize    int `koanf:"item_size"`
	ListSize    int `koanf:"list_size"`
	PopularSize int `koanf:"popular_size"`
	ProfileSize int `koanf:"profile_size"`

	ItemTTL    time.Duration `koanf:"item_ttl"`
	ListTTL    time.Duration `koanf:"list_ttl"`
	PopularTTL time.Duration `koanf:"popular_ttl"`
	ProfileTTL time.Duration `koanf:"profile_ttl"`

	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// Config is the full server configuration.
type Config struct {
	Logging      logging.Config      `koanf:"logging"`
	Storage      StorageConfig       `koanf:"storage"`
	Cache        CacheConfig         `koanf:"cache"`
	Recommend    recommend.Config    `koanf:"recommend"`
	CatalogGuard catalog.GuardConfig `koanf:"catalog_guard"`

	// SeedCatalog loads the built-in development catalog at startup.
	SeedCatalog bool `koanf:"seed_catalog"`

	// MetricsAddr is the listen address for the Prometheus endpoint.
	MetricsAddr string `koanf:"metrics_addr"`
}

func defaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Storage: StorageConfig{
			Path:     "/data/pickplate",
			InMemory: false,
		},
		Cache: CacheConfig{
			ItemSize:      2000,
			ListSize:      500,
			PopularSize:   500,
			ProfileSize:   5000,
			ItemTTL:       10 * time.Minute,
			ListTTL:       5 * time.Minute,
			PopularTTL:    15 * time.Minute,
			ProfileTTL:    time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Recommend:    recommend.DefaultConfig(),
		CatalogGuard: catalog.DefaultGuardConfig(),
		SeedCatalog:  false,
		MetricsAddr:  ":9090",
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and PICKPLATE_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// PICKPLATE_CACHE__SWEEP_INTERVAL -> cache.sweep_interval
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the whole tree, delegating to component configs.
func (c *Config) Validate() error {
	if err := c.Recommend.Validate(); err != nil {
		return err
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path required unless storage.in_memory is set")
	}
	if c.Cache.ItemSize <= 0 || c.Cache.ListSize <= 0 || c.Cache.PopularSize <= 0 || c.Cache.ProfileSize <= 0 {
		return fmt.Errorf("config: cache sizes must be positive")
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("config: cache.sweep_interval must be positive")
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
