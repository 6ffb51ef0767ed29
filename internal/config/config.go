// Package config provides configuration loading for complyd.
//
// Configuration is loaded from a YAML file, then overridden by COMPLYD_*
// environment variables. Precedence (highest to lowest):
//
//  1. Environment variables (COMPLYD_SERVER_PORT, COMPLYD_LOGGING_LEVEL, ...)
//  2. YAML config file
//  3. Defaults
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/complyd/internal/logging"
)

// Config holds the complete complyd configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Catalogue    CatalogueConfig    `koanf:"catalogue"`
	Semantic     SemanticConfig     `koanf:"semantic"`
	Logging      logging.Config     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// OrchestratorConfig holds gate evaluation settings.
type OrchestratorConfig struct {
	MaxConcurrent int           `koanf:"max_concurrent"`
	GateTimeout   time.Duration `koanf:"gate_timeout"`
}

// CatalogueConfig holds pattern catalogue settings.
type CatalogueConfig struct {
	// Path is the catalogue YAML file.
	Path string `koanf:"path"`

	// WatchReload enables hot reload when the file changes.
	WatchReload bool `koanf:"watch_reload"`
}

// SemanticConfig holds semantic collaborator settings.
type SemanticConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries   int           `koanf:"cache_max_entries"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9070,
			ShutdownTimeout: 10 * time.Second,
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrent: 10,
			GateTimeout:   5 * time.Second,
		},
		Catalogue: CatalogueConfig{
			WatchReload: true,
		},
		Semantic: SemanticConfig{
			Timeout:           3 * time.Second,
			RequestsPerSecond: 20,
			CacheTTL:          5 * time.Minute,
			CacheMaxEntries:   256,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Orchestrator.MaxConcurrent <= 0 {
		return errors.New("orchestrator.max_concurrent must be positive")
	}
	if c.Orchestrator.GateTimeout <= 0 {
		return errors.New("orchestrator.gate_timeout must be positive")
	}
	if c.Catalogue.Path == "" {
		return errors.New("catalogue.path is required")
	}
	if c.Semantic.Enabled && c.Semantic.BaseURL == "" {
		return errors.New("semantic.base_url is required when semantic.enabled")
	}
	return nil
}
