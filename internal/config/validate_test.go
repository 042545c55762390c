package config

import (
	"strings"
	"testing"

	_ "github.com/flemzord/dbset/internal/provision/sqlite" // sqlite driver registration
)

func validConfig() *Config {
	cfg := &Config{
		Version: "1",
		Databases: map[string]Database{
			"default": {},
			"clubs":   {DependsOn: []string{"default"}},
		},
	}
	cfg.Defaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingVersion(t *testing.T) {
	cfg := validConfig()
	cfg.Version = ""
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing version")
	}
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("error should mention version: %v", err)
	}
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	cfg := validConfig()
	cfg.Version = "99"
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported version error, got %v", err)
	}
}

func TestValidate_EmptyDatabases(t *testing.T) {
	cfg := &Config{Version: "1"}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "at least one database") {
		t.Errorf("expected empty databases error, got %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Databases["weird"] = Database{Driver: "oracle-9i"}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "oracle-9i") {
		t.Errorf("expected unknown driver error, got %v", err)
	}
}

func TestValidate_SurfacesPlanningDefects(t *testing.T) {
	cfg := validConfig()
	cfg.Databases["a"] = Database{Driver: "sqlite", DependsOn: []string{"b"}}
	cfg.Databases["b"] = Database{Driver: "sqlite", DependsOn: []string{"a"}}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected cycle error at config time, got %v", err)
	}
}

func TestValidate_MirrorChainRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Databases["replica"] = Database{Mirror: "default"}
	cfg.Databases["replica2"] = Database{Mirror: "replica"}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "chain") {
		t.Errorf("expected mirror chain error, got %v", err)
	}
}

func TestValidate_BadCronSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Refresh.Schedule = "not a cron line"
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "refresh.schedule") {
		t.Errorf("expected schedule error, got %v", err)
	}
}

func TestValidate_GoodCronSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Refresh.Schedule = "0 * * * *"
	if err := Validate(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
