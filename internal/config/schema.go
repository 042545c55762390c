// Package config handles YAML configuration loading, environment
// variable expansion, and structural validation for dbset.
package config

import (
	"github.com/flemzord/dbset/internal/plan"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Databases maps each alias to its database configuration.
	Databases map[string]Database `yaml:"databases"`

	// Policy holds planning policy knobs.
	Policy Policy `yaml:"policy,omitempty"`

	// Provisioner holds settings for the provisioning engine.
	Provisioner Provisioner `yaml:"provisioner,omitempty"`

	// Gateway configures the daemon's HTTP surface. Optional; the
	// gateway is only started by `dbset serve`.
	Gateway Gateway `yaml:"gateway,omitempty"`

	// Refresh configures scheduled drop-and-recreate runs. Optional.
	Refresh Refresh `yaml:"refresh,omitempty"`

	// Telemetry configures trace export. Optional.
	Telemetry Telemetry `yaml:"telemetry,omitempty"`
}

// Database configures one database alias.
type Database struct {
	// Driver selects the provisioning backend (e.g. "sqlite").
	// Defaults to "sqlite". Ignored for mirrors.
	Driver string `yaml:"driver,omitempty"`

	// DependsOn lists aliases that must be created before this one.
	DependsOn []string `yaml:"depends_on,omitempty"`

	// Mirror routes this alias to another alias's live connection
	// instead of creating a separate database.
	Mirror string `yaml:"mirror,omitempty"`

	// Serialized snapshots the database after creation so its content
	// can be restored between test runs.
	Serialized bool `yaml:"serialized,omitempty"`

	// Schema is an optional path to a SQL file applied after creation.
	Schema string `yaml:"schema,omitempty"`
}

// Policy holds planning policy knobs.
type Policy struct {
	// ImplicitDefault orders the "default" alias first for specs that
	// declare no dependencies of their own. Enabled unless set to
	// false explicitly.
	ImplicitDefault *bool `yaml:"implicit_default,omitempty"`
}

// Provisioner holds settings for the provisioning engine.
type Provisioner struct {
	// DataDir is where file-backed databases live. Defaults to ".dbset".
	DataDir string `yaml:"data_dir,omitempty"`

	// Workers bounds parallel creation steps. Defaults to 4.
	// A value of 1 forces fully sequential provisioning.
	Workers int `yaml:"workers,omitempty"`
}

// Gateway configures the daemon HTTP surface.
type Gateway struct {
	// Listen is the address to bind, e.g. "127.0.0.1:8537".
	Listen string `yaml:"listen,omitempty"`

	// AuthToken protects non-public endpoints with bearer auth.
	// When empty only public endpoints are mounted.
	AuthToken string `yaml:"auth_token,omitempty"`
}

// Refresh configures scheduled re-provisioning.
type Refresh struct {
	// Schedule is a standard five-field cron expression. Empty
	// disables scheduled refresh.
	Schedule string `yaml:"schedule,omitempty"`
}

// Telemetry configures trace export.
type Telemetry struct {
	// OTLPEndpoint is the host:port of an OTLP/HTTP collector.
	// Empty disables tracing.
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure,omitempty"`
}

const (
	defaultDataDir = ".dbset"
	defaultWorkers = 4
	defaultListen  = "127.0.0.1:8537"
	defaultDriver  = "sqlite"
)

// Defaults fills zero values with their documented defaults.
func (c *Config) Defaults() {
	if c.Provisioner.DataDir == "" {
		c.Provisioner.DataDir = defaultDataDir
	}
	if c.Provisioner.Workers <= 0 {
		c.Provisioner.Workers = defaultWorkers
	}
	if c.Gateway.Listen == "" {
		c.Gateway.Listen = defaultListen
	}
	for alias, db := range c.Databases {
		if db.Driver == "" && db.Mirror == "" {
			db.Driver = defaultDriver
			c.Databases[alias] = db
		}
	}
}

// Specs converts the database section into planner specs.
func (c *Config) Specs() map[string]plan.Spec {
	specs := make(map[string]plan.Spec, len(c.Databases))
	for alias, db := range c.Databases {
		specs[alias] = plan.Spec{
			DependsOn:  db.DependsOn,
			Mirror:     db.Mirror,
			Serialized: db.Serialized,
		}
	}
	return specs
}

// PlanOptions derives planner options from the policy section.
func (c *Config) PlanOptions() plan.Options {
	implicit := true
	if c.Policy.ImplicitDefault != nil {
		implicit = *c.Policy.ImplicitDefault
	}
	return plan.Options{ImplicitDefault: implicit}
}
