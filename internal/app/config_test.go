package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("got %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestLoadConfig_BackfillsZeroFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "endpoint: http://answers.internal:8000/chat\ntimeout_seconds: 0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Endpoint != "http://answers.internal:8000/chat" {
		t.Fatalf("endpoint not read from file: %q", cfg.Endpoint)
	}
	if cfg.TimeoutSeconds != 120 {
		t.Fatalf("zero timeout not backfilled: %d", cfg.TimeoutSeconds)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("empty log level not backfilled: %q", cfg.LogLevel)
	}
}

func TestLoadConfig_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("endpoint: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	want := Config{
		Endpoint:       "http://127.0.0.1:9000/chat",
		TimeoutSeconds: 30,
		HistoryLimit:   10,
		LogFile:        "/tmp/perplex.log",
		LogLevel:       "debug",
	}

	if err := SaveConfig(want, path); err != nil {
		t.Fatalf("save config: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestConfigTimeout(t *testing.T) {
	cfg := Config{TimeoutSeconds: 45}
	if got := cfg.Timeout(); got != 45*time.Second {
		t.Fatalf("Timeout() = %v, want 45s", got)
	}
}
