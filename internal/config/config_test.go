package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PACELINE_DEV_MODE", "true")
	t.Setenv("PACELINE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/paceline.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Projection.HorizonDays != 84 {
		t.Errorf("horizon = %d, want 84", cfg.Projection.HorizonDays)
	}
	if time.Duration(cfg.Worker.RolloverInterval) != time.Hour {
		t.Errorf("rollover interval = %v, want 1h", time.Duration(cfg.Worker.RolloverInterval))
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log config = %+v", cfg.Log)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("PACELINE_DEV_MODE", "true")

	path := filepath.Join(t.TempDir(), "paceline.yaml")
	yaml := `
server:
  port: 9090
  shutdown_timeout: 5s
database:
  path: /tmp/other.db
worker:
  rollover_interval: 30m
projection:
  horizon_days: 42
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if time.Duration(cfg.Server.ShutdownTimeout) != 5*time.Second {
		t.Errorf("shutdown timeout = %v", time.Duration(cfg.Server.ShutdownTimeout))
	}
	if time.Duration(cfg.Worker.RolloverInterval) != 30*time.Minute {
		t.Errorf("rollover interval = %v", time.Duration(cfg.Worker.RolloverInterval))
	}
	if cfg.Projection.HorizonDays != 42 {
		t.Errorf("horizon = %d, want 42", cfg.Projection.HorizonDays)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	// Untouched keys keep their defaults.
	if time.Duration(cfg.Server.ReadTimeout) != 30*time.Second {
		t.Errorf("read timeout = %v, want default", time.Duration(cfg.Server.ReadTimeout))
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paceline.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PACELINE_CONFIG_PATH", path)
	t.Setenv("PACELINE_PORT", "7070")
	t.Setenv("PACELINE_API_KEY", "secret")
	t.Setenv("PACELINE_PROJECTION_HORIZON_DAYS", "100")
	t.Setenv("PACELINE_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Auth.APIKey != "secret" {
		t.Errorf("api key not picked up from env")
	}
	if cfg.Projection.HorizonDays != 100 {
		t.Errorf("horizon = %d, want 100", cfg.Projection.HorizonDays)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("PACELINE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PACELINE_API_KEY", "")
	t.Setenv("PACELINE_DEV_MODE", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without API key")
	}
}

func TestLoad_RejectsBadHorizon(t *testing.T) {
	t.Setenv("PACELINE_DEV_MODE", "true")
	t.Setenv("PACELINE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PACELINE_PROJECTION_HORIZON_DAYS", "-5")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted a negative projection horizon")
	}
}

func TestDuration_UnmarshalRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paceline.yaml")
	if err := os.WriteFile(path, []byte("worker:\n  rollover_interval: \"not-a-duration\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PACELINE_DEV_MODE", "true")

	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("LoadFromFile accepted an invalid duration")
	}
}
