// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.API.DefaultPageSize != 6 {
		t.Errorf("API.DefaultPageSize = %d, want 6", cfg.API.DefaultPageSize)
	}
	if cfg.API.MaxPageSize != 100 {
		t.Errorf("API.MaxPageSize = %d, want 100", cfg.API.MaxPageSize)
	}
	if cfg.Security.TokenStore != "memory" {
		t.Errorf("Security.TokenStore = %q, want memory", cfg.Security.TokenStore)
	}
	if cfg.Security.TokenTTL != 7*24*time.Hour {
		t.Errorf("Security.TokenTTL = %v, want 168h", cfg.Security.TokenTTL)
	}
	if cfg.Media.URLPrefix != "/media/" {
		t.Errorf("Media.URLPrefix = %q, want /media/", cfg.Media.URLPrefix)
	}
	if cfg.Security.JWTSecret != "" {
		t.Error("JWT secret must not have a default")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"PUBLIC_URL", "server.public_url"},
		{"DUCKDB_PATH", "database.path"},
		{"API_MAX_PAGE_SIZE", "api.max_page_size"},
		{"SHORT_LINK_CACHE_TTL", "api.short_link_cache_ttl"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"TOKEN_STORE", "security.token_store"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"MEDIA_ROOT", "media.root"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("API_DEFAULT_PAGE_SIZE", "10")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	chdirTemp(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.API.DefaultPageSize != 10 {
		t.Errorf("API.DefaultPageSize = %d, want 10", cfg.API.DefaultPageSize)
	}
	if cfg.Security.TokenTTL != 2*time.Hour {
		t.Errorf("Security.TokenTTL = %v, want 2h", cfg.Security.TokenTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.Security.CORSOrigins, ",") != strings.Join(want, ",") {
		t.Errorf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

func TestLoadWithKoanfFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "larder.yaml")
	content := `
server:
  port: 7000
database:
  path: ":memory:"
security:
  jwt_secret: "` + testSecret + `"
  token_store: badger
  token_store_path: /tmp/larder-tokens
media:
  max_dimension: 800
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7100")
	t.Setenv("MEDIA_MAX_PIXELS", "1000000")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("env should override file: Server.Port = %d, want 7100", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.Security.TokenStore != "badger" {
		t.Errorf("Security.TokenStore = %q, want badger", cfg.Security.TokenStore)
	}
	if cfg.Media.MaxDimension != 800 {
		t.Errorf("Media.MaxDimension = %d, want 800", cfg.Media.MaxDimension)
	}
	if cfg.Media.MaxPixels != 1_000_000 {
		t.Errorf("Media.MaxPixels = %d, want 1000000", cfg.Media.MaxPixels)
	}
	if cfg.API.MaxPageSize != 100 {
		t.Errorf("defaults should survive: API.MaxPageSize = %d", cfg.API.MaxPageSize)
	}
}

func TestLoadWithKoanfRequiresSecret(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "")
	chdirTemp(t)

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected an error without JWT_SECRET")
	}
}

func TestLoadWithoutValidation(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DUCKDB_PATH", "/tmp/import.duckdb")
	chdirTemp(t)

	cfg, err := LoadWithoutValidation()
	if err != nil {
		t.Fatalf("LoadWithoutValidation() error: %v", err)
	}
	if cfg.Database.Path != "/tmp/import.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv(ConfigPathEnvVar, "")

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("server:\n  port: 1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := findConfigFile(); got != "config.yml" {
		t.Errorf("findConfigFile() = %q, want config.yml", got)
	}
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
	return dir
}
