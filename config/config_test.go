package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("PORT", "5050")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LEGACY_ROLE_GATE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("Server.Port = %d, want 5050", cfg.Server.Port)
	}
	if got := cfg.Server.CORSOrigins; len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", got)
	}
	if !cfg.Auth.LegacyRoleGate {
		t.Error("LegacyRoleGate = false, want true")
	}
	if cfg.Server.ClientURL != developmentClientURL {
		t.Errorf("ClientURL = %q, want %q", cfg.Server.ClientURL, developmentClientURL)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Server.Timeout)
	}
}

func TestLoadProductionClientURL(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatal("IsProduction() = false")
	}
	if cfg.Server.ClientURL != productionClientURL {
		t.Errorf("ClientURL = %q", cfg.Server.ClientURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  port: 7070\nauth:\n  jwt_secret: file-secret-0123456789\nmail:\n  rate_per_second: 2\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 || cfg.Auth.JWTSecret != "file-secret-0123456789" || cfg.Mail.RatePerSecond != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "at least 16"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "out of range"},
		{"no mail rate", func(c *Config) { c.Mail.RatePerSecond = 0 }, "rate_per_second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Auth.JWTSecret = "0123456789abcdef0123"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
