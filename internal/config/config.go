// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

// Package config loads Larder's runtime configuration.
//
// Sources are layered with Koanf v2, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/larder/config.yaml
//  3. Environment variables, mapped explicitly by envTransformFunc
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
//
// Config is immutable after Load and safe for concurrent reads.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Media    MediaConfig    `koanf:"media"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production

	// PublicURL, when set, is used instead of the request host for short links
	// and pagination URLs (e.g. https://larder.example.com behind a proxy).
	PublicURL string `koanf:"public_url"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path         string `koanf:"path"` // ":memory:" for an ephemeral database
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"` // 0 = runtime.NumCPU()
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// APIConfig holds pagination and lookup cache settings.
type APIConfig struct {
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	ShortLinkCacheTTL time.Duration `koanf:"short_link_cache_ttl"`
}

// SecurityConfig holds token, rate limit and CORS settings.
type SecurityConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	// TokenStore selects where logged-out token ids are kept: memory or badger.
	TokenStore     string `koanf:"token_store"`
	TokenStorePath string `koanf:"token_store_path"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// MediaConfig controls where uploaded recipe images and avatars are written.
type MediaConfig struct {
	Root           string `koanf:"root"`
	URLPrefix      string `koanf:"url_prefix"`
	MaxDimension   int    `koanf:"max_dimension"`    // longest side in pixels, 0 disables resizing
	MaxUploadBytes int64  `koanf:"max_upload_bytes"` // decoded image size limit
	MaxPixels      int64  `koanf:"max_pixels"`       // width*height limit read from the header, 0 disables
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	switch c.Server.Environment {
	case "production", "prod":
		return true
	}
	return false
}
