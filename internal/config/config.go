// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config defines and loads the controller's static configuration:
// where the REST API listens, how logging is set up, and the optional
// switchboard callback fired on switch join (§6, §9.3 of the design notes).
package config

// CurrentSchemaVersion is bumped whenever a backwards-incompatible field is added.
const CurrentSchemaVersion = "1.0"

// Config is the top-level controller configuration.
type Config struct {
	// Schema version, for forward-compat warnings on load.
	// @default: "1.0"
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty"`

	API        *APIConfig        `hcl:"api,block" json:"api,omitempty"`
	Logging    *LoggingConfig    `hcl:"logging,block" json:"logging,omitempty"`
	Switchboard *SwitchboardConfig `hcl:"switchboard,block" json:"switchboard,omitempty"`
}

// APIConfig controls the REST listener (§6).
type APIConfig struct {
	// Listen address for the REST API, e.g. ":8080".
	// @default: ":8080"
	Listen string `hcl:"listen,optional" json:"listen,omitempty"`
}

// LoggingConfig controls the ambient structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// @default: "info"
	Level string `hcl:"level,optional" json:"level,omitempty"`
	// JSON switches the handler from human-readable text to JSON lines.
	// @default: false
	JSON bool `hcl:"json,optional" json:"json,omitempty"`
	Syslog *SyslogBlock `hcl:"syslog,block" json:"syslog,omitempty"`
}

// SyslogBlock mirrors logging.SyslogConfig for HCL decoding.
type SyslogBlock struct {
	Enabled  bool   `hcl:"enabled,optional" json:"enabled,omitempty"`
	Host     string `hcl:"host,optional" json:"host,omitempty"`
	Port     int    `hcl:"port,optional" json:"port,omitempty"`
	Protocol string `hcl:"protocol,optional" json:"protocol,omitempty"`
	Tag      string `hcl:"tag,optional" json:"tag,omitempty"`
	Facility int    `hcl:"facility,optional" json:"facility,omitempty"`
}

// SwitchboardConfig describes the optional external configuration service
// polled (fire-and-forget) on switch join. An empty StateURL disables the call.
type SwitchboardConfig struct {
	StateURL string       `hcl:"state_url,optional" json:"state_url,omitempty"`
	Username string       `hcl:"username,optional" json:"username,omitempty"`
	Password SecureString `hcl:"password,optional" json:"password,omitempty"`
}

// Default returns a Config with every optional block filled with its default.
func Default() *Config {
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		API:           &APIConfig{Listen: ":8080"},
		Logging:       &LoggingConfig{Level: "info"},
	}
}

// Enabled reports whether the switchboard callback should be attempted.
func (s *SwitchboardConfig) Enabled() bool {
	return s != nil && s.StateURL != ""
}
