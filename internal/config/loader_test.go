package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.ini")

	cfg, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("Failed to load or create config: %v", err)
	}
	if !created {
		t.Error("Expected config file to be created")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected config file on disk: %v", err)
	}
	if cfg.InvitationCode != DefaultInvitationCode {
		t.Errorf("Expected default invitation code, got '%s'", cfg.InvitationCode)
	}

	// Second call reads the file back
	again, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if created {
		t.Error("Expected existing config file to be reused")
	}
	if *again != *cfg {
		t.Errorf("Expected round-tripped config %+v, got %+v", cfg, again)
	}
}

func TestLoadFromINIPartial(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.ini")

	content := `[Settings]
cycleDelaySeconds = 5
taskDelayMs = 0
databaseFile =
logLevel = DEBUG
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.CycleDelay() != 5*time.Second {
		t.Errorf("Expected cycle delay 5s, got %v", cfg.CycleDelay())
	}
	if cfg.TaskDelay() != 0 {
		t.Errorf("Expected task delay 0, got %v", cfg.TaskDelay())
	}
	if cfg.AccountDelay() != time.Second {
		t.Errorf("Expected default account delay 1s, got %v", cfg.AccountDelay())
	}
	if cfg.DatabaseFile != "" {
		t.Errorf("Expected database disabled, got '%s'", cfg.DatabaseFile)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("Expected log level DEBUG, got '%s'", cfg.LogLevel)
	}
	if cfg.MaxClicksToday != DefaultMaxClicksToday {
		t.Errorf("Expected max clicks %d, got %d", DefaultMaxClicksToday, cfg.MaxClicksToday)
	}
}

func TestLoadFromYAML(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.yaml")

	content := `baseURL: http://localhost:9999
proxyFile: proxies.txt
accountDelayMs: 250
metricsAddr: ":9102"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("Expected base URL override, got '%s'", cfg.BaseURL)
	}
	if cfg.ProxyFile != "proxies.txt" {
		t.Errorf("Expected proxy file 'proxies.txt', got '%s'", cfg.ProxyFile)
	}
	if cfg.AccountDelay() != 250*time.Millisecond {
		t.Errorf("Expected account delay 250ms, got %v", cfg.AccountDelay())
	}
	if cfg.MetricsAddr != ":9102" {
		t.Errorf("Expected metrics addr ':9102', got '%s'", cfg.MetricsAddr)
	}
	if cfg.TokenFile != "token.json" {
		t.Errorf("Expected default token file, got '%s'", cfg.TokenFile)
	}
	if cfg.CycleDelaySeconds != 60 {
		t.Errorf("Expected default cycle delay 60, got %d", cfg.CycleDelaySeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.ini")); err == nil {
		t.Error("Expected error for missing INI file")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing YAML file")
	}
}
