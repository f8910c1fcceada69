package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ADJUST_CONFIG", "")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.LogLevel != "info" || cfg.MaxUploadMB != 32 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Fatalf("expected 30s read timeout, got %s", cfg.ReadTimeout)
	}
	if cfg.maxUploadBytes() != 32<<20 {
		t.Fatalf("expected 32 MiB, got %d", cfg.maxUploadBytes())
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjust.yaml")
	if err := os.WriteFile(path, []byte("http_addr: \":9090\"\nlog_format: console\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.LogFormat != "console" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env override, got %s", cfg.LogLevel)
	}
}
