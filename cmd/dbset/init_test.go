package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flemzord/dbset/internal/config"
)

func TestStarterConfig_LoadsAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbset.yaml")
	if err := os.WriteFile(path, starterConfig("sqlite", ".dbset", true), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load starter config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("validate starter config: %v", err)
	}

	if cfg.Databases["default"].Driver != "sqlite" {
		t.Errorf("default driver = %q", cfg.Databases["default"].Driver)
	}
	if cfg.Databases["replica"].Mirror != "default" {
		t.Errorf("replica mirror = %q", cfg.Databases["replica"].Mirror)
	}
}

func TestStarterConfig_WithoutReplica(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbset.yaml")
	if err := os.WriteFile(path, starterConfig("memory", "data", false), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cfg.Databases["replica"]; ok {
		t.Error("replica should not be present")
	}
	if cfg.Provisioner.DataDir != "data" {
		t.Errorf("data_dir = %q", cfg.Provisioner.DataDir)
	}
}
