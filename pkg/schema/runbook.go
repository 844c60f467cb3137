// Package schema defines the runbook: the YAML document that drives one
// orchestration run. It names the platform, the predefined environments and
// the test selection, and carries the ambient settings (logging, metrics,
// result store). Loading validates the document before any component runs.
package schema

import (
	"gopkg.in/yaml.v3"
)

// Runbook is the top-level run configuration.
type Runbook struct {
	// Name identifies the run in logs and persisted results.
	Name string `yaml:"name" validate:"required"`

	// Platform selects and configures the active environment provider.
	Platform PlatformConfig `yaml:"platform"`

	// Environments lists predefined environments with explicit capability.
	Environments []EnvironmentConfig `yaml:"environments"`

	// TestCases selects which cases run and carries per-selection overrides.
	TestCases []CaseSelectConfig `yaml:"testcase" validate:"dive"`

	// Logging configures log output for the run.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the optional Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Store configures the optional result database.
	Store StoreConfig `yaml:"store"`
}

// PlatformConfig is a typed descriptor: Type names the registered platform
// implementation and Raw carries the implementation-specific settings, which
// the implementation decodes into its own schema.
type PlatformConfig struct {
	Type string    `yaml:"type" validate:"required"`
	Raw  yaml.Node `yaml:"settings"`
}

// DecodeSettings re-decodes the raw settings block into an
// implementation-specific configuration struct.
func (p *PlatformConfig) DecodeSettings(out any) error {
	if p.Raw.IsZero() {
		return nil
	}
	return p.Raw.Decode(out)
}

// EnvironmentConfig describes one predefined environment.
type EnvironmentConfig struct {
	Name  string       `yaml:"name" validate:"required"`
	Nodes []NodeConfig `yaml:"nodes" validate:"min=1,dive"`
}

// NodeConfig describes one concrete node of a predefined environment.
type NodeConfig struct {
	// Name is optional; unnamed nodes get an index-derived name.
	Name string `yaml:"name"`

	// Type selects the shell transport: "local" or "ssh".
	Type string `yaml:"type" validate:"required,oneof=local ssh"`

	// NicCount is the number of network interfaces the node offers.
	NicCount int `yaml:"nic_count" validate:"min=1"`

	// OS is the operating system classifier name, e.g. "ubuntu".
	OS string `yaml:"os"`

	// Features lists capability feature names the node offers.
	Features []string `yaml:"features"`

	// Connection settings for ssh nodes.
	Address        string `yaml:"address" validate:"required_if=Type ssh"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username" validate:"required_if=Type ssh"`
	PrivateKeyFile string `yaml:"private_key_file"`
	Password       string `yaml:"password"`
}

// CaseSelectConfig selects cases by criteria and applies runtime overrides
// to every match.
type CaseSelectConfig struct {
	Criteria CriteriaConfig `yaml:"criteria"`

	// Times schedules each matched case this many times. Zero means once.
	Times int `yaml:"times" validate:"min=0"`

	// Retry is the extra attempts granted to each hook and case body.
	Retry int `yaml:"retry" validate:"min=0"`

	// UseNewEnvironment forces a freshly synthesized environment.
	UseNewEnvironment bool `yaml:"use_new_environment"`

	// IgnoreFailure turns a terminal failure into Attempted.
	IgnoreFailure bool `yaml:"ignore_failure"`

	// EnvironmentName pins the case to a named predefined environment.
	EnvironmentName string `yaml:"environment"`
}

// CriteriaConfig matches cases in the registry. Empty fields match
// everything; set fields must all match.
type CriteriaConfig struct {
	// Name matches the case name or full name.
	Name string `yaml:"name"`

	// Area and Category match the owning suite's declaration.
	Area     string `yaml:"area"`
	Category string `yaml:"category"`

	// Priority matches the case priority exactly. Nil matches any.
	Priority *int `yaml:"priority"`

	// Tags must all be present on the owning suite.
	Tags []string `yaml:"tags"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`

	// Format is "console" or "json".
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// StoreConfig configures run/result persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}
