package config

import (
	"time"

	"meshplan/internal/planner"
)

// Config is the root configuration structure
type Config struct {
	Version    int              `yaml:"version"`
	Posture    Posture          `yaml:"posture"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Planning   PlanningConfig   `yaml:"planning"`
	Schemes    SchemesConfig    `yaml:"schemes"`
	Addressing AddressingConfig `yaml:"addressing"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DiscoveryConfig controls how a lab is inspected
type DiscoveryConfig struct {
	Lab              string            `yaml:"lab,omitempty"`
	Kind             string            `yaml:"kind" validate:"required"`
	Username         string            `yaml:"username" validate:"required"`
	PasswordEnv      string            `yaml:"password_env,omitempty"`
	SSHKeyPath       *string           `yaml:"ssh_key_path,omitempty"`
	KnownHostsPath   *string           `yaml:"known_hosts_path,omitempty"`
	Port             int               `yaml:"port" validate:"min=1,max=65535"`
	SkipReachability bool              `yaml:"skip_reachability,omitempty"`
	Behavior         *BehaviorOverride `yaml:"behavior,omitempty"`
}

// BehaviorOverride allows overriding posture defaults
type BehaviorOverride struct {
	ProbeTimeout          *Duration `yaml:"probe_timeout,omitempty"`
	SessionTimeout        *Duration `yaml:"session_timeout,omitempty"`
	MaxConcurrentSessions *int      `yaml:"max_concurrent_sessions,omitempty"`
	MaxRetries            *int      `yaml:"max_retries,omitempty"`
}

// PlanningConfig holds the role-hierarchy parameters
type PlanningConfig struct {
	ASN          uint32         `yaml:"asn"`
	IncludeOther bool           `yaml:"include_other,omitempty"`
	OtherTier    string         `yaml:"other_tier,omitempty"`
	FanOut       map[string]int `yaml:"fan_out,omitempty"`
	// Tiers replaces the default tier table when set
	Tiers     []planner.Tier     `yaml:"tiers,omitempty"`
	Forbidden []planner.TierPair `yaml:"forbidden,omitempty"`
}

// SchemesConfig holds the adjacency-mode scheme identifiers
type SchemesConfig struct {
	Core         SchemeConfig `yaml:"core"`
	Distribution SchemeConfig `yaml:"distribution"`
	Access       SchemeConfig `yaml:"access"`
	Uniform      bool         `yaml:"uniform,omitempty"`
	Loopback     string       `yaml:"loopback,omitempty"`
}

// SchemeConfig is one scheme identifier and its area
type SchemeConfig struct {
	ID   int    `yaml:"id" validate:"min=1,max=65535"`
	Area string `yaml:"area" validate:"required,ipv4"`
}

// AddressingConfig holds the point-to-point link pools
type AddressingConfig struct {
	IPv4Pool string `yaml:"ipv4_pool" validate:"required,cidrv4"`
	IPv6Base string `yaml:"ipv6_base" validate:"required,ipv6"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the log level and encoder
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
