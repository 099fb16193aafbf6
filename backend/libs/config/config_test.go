package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout" env:"SAMPLE_TIMEOUT"`
	Origins []string      `yaml:"origins" env:"SAMPLE_ORIGINS"`
	DB      struct {
		Port int `yaml:"port"`
	} `yaml:"db"`
	Skip string `env:"-"`
}

func TestLoadConfigFromFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := "name: insights\ntimeout: 2s\norigins: [\"http://a\"]\ndb:\n  port: 5432\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SAMPLE_TIMEOUT", "90s")
	t.Setenv("DB_PORT", "6543")

	var cfg sample
	if err := LoadConfigFrom(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "insights" {
		t.Fatalf("expected name from file, got %q", cfg.Name)
	}
	if cfg.Timeout != 90*time.Second {
		t.Fatalf("expected env duration override, got %s", cfg.Timeout)
	}
	if cfg.DB.Port != 6543 {
		t.Fatalf("expected nested env override, got %d", cfg.DB.Port)
	}
	if len(cfg.Origins) != 1 || cfg.Origins[0] != "http://a" {
		t.Fatalf("unexpected origins %v", cfg.Origins)
	}
}

func TestLoadConfigListFromEnv(t *testing.T) {
	t.Setenv("SAMPLE_ORIGINS", "http://a, ,http://b")

	var cfg sample
	if err := LoadConfigFrom("", &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://b" {
		t.Fatalf("unexpected origins %v", cfg.Origins)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("SAMPLE_TIMEOUT", "soon")

	var cfg sample
	if err := LoadConfigFrom("", &cfg); err == nil {
		t.Fatal("expected parse error for invalid duration")
	}
}

func TestLoadConfigTargetValidation(t *testing.T) {
	if err := LoadConfigFrom("", nil); err == nil {
		t.Fatal("expected error for nil target")
	}
	var cfg sample
	if err := LoadConfigFrom("", cfg); err == nil {
		t.Fatal("expected error for non-pointer target")
	}
}
