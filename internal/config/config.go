// Package config provides configuration management for meshplan.
//
// The config file describes how to reach a lab and how to plan it; the
// snapshot database stores what discovery found and can be wiped freely.
//
// Config file locations (priority order, see Locate):
//  1. --config
//  2. $MESHPLAN_CONFIG
//  3. ./meshplan.yaml
//  4. ~/.config/meshplan/config.yaml
//  5. /etc/meshplan/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"meshplan/internal/addressing"
	"meshplan/internal/domain"
	"meshplan/internal/planner"
	"meshplan/internal/validation"
)

const (
	DefaultKind        = "cisco_xrd"
	DefaultUsername    = "clab"
	DefaultPasswordEnv = "MESHPLAN_SSH_PASSWORD"
	DefaultDBPath      = "./meshplan.db"
)

// Load resolves the config file with Locate and loads it, or returns
// defaults if none is found. explicit is the --config flag value.
func Load(explicit string) (*Config, Location, error) {
	loc := Locate(explicit)
	if loc.Source == SourceDefaults {
		return DefaultConfig(), loc, nil
	}

	cfg, _, err := LoadFromPath(loc.Path)
	return cfg, loc, err
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Posture == "" {
		c.Posture = PostureBalanced
	}

	if c.Discovery.Kind == "" {
		c.Discovery.Kind = DefaultKind
	}
	if c.Discovery.Username == "" {
		c.Discovery.Username = DefaultUsername
	}
	if c.Discovery.PasswordEnv == "" {
		c.Discovery.PasswordEnv = DefaultPasswordEnv
	}
	if c.Discovery.Port == 0 {
		c.Discovery.Port = 22
	}

	if c.Planning.OtherTier == "" {
		c.Planning.OtherTier = planner.TierCore
	}

	defaults := planner.DefaultSchemeTable().Schemes
	fillScheme(&c.Schemes.Core, defaults[planner.SchemeCore])
	fillScheme(&c.Schemes.Distribution, defaults[planner.SchemeDistribution])
	fillScheme(&c.Schemes.Access, defaults[planner.SchemeAccess])
	if c.Schemes.Loopback == "" {
		c.Schemes.Loopback = planner.DefaultLoopbackInterface
	}

	if c.Addressing.IPv4Pool == "" {
		c.Addressing.IPv4Pool = addressing.DefaultIPv4Pool
	}
	if c.Addressing.IPv6Base == "" {
		c.Addressing.IPv6Base = addressing.DefaultIPv6Base
	}

	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func fillScheme(s *SchemeConfig, def planner.Scheme) {
	if s.ID == 0 {
		s.ID = def.ID
	}
	if s.Area == "" {
		s.Area = def.Area
	}
}

// Validate checks field constraints and the effective tier table
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.TierTable().Validate(); err != nil {
		return err
	}
	return nil
}

// EffectiveBehavior returns behavior profile with overrides applied
func (c *Config) EffectiveBehavior() BehaviorProfile {
	base := c.Posture.GetProfile()

	o := c.Discovery.Behavior
	if o == nil {
		return base
	}

	if o.ProbeTimeout != nil {
		base.ProbeTimeout = o.ProbeTimeout.Duration()
	}
	if o.SessionTimeout != nil {
		base.SessionTimeout = o.SessionTimeout.Duration()
	}
	if o.MaxConcurrentSessions != nil {
		base.MaxConcurrentSessions = *o.MaxConcurrentSessions
	}
	if o.MaxRetries != nil {
		base.MaxRetries = *o.MaxRetries
	}

	return base
}

// TierTable returns the configured tier table with fan-out overrides applied
func (c *Config) TierTable() planner.TierTable {
	table := planner.DefaultTierTable()
	if len(c.Planning.Tiers) > 0 {
		table = planner.TierTable{Tiers: c.Planning.Tiers, Forbidden: c.Planning.Forbidden}
	}
	return table.WithFanOut(c.Planning.FanOut)
}

// SchemeTable returns the default scheme table with configured identifiers
func (c *Config) SchemeTable() planner.SchemeTable {
	table := planner.DefaultSchemeTable()
	table.Schemes = map[planner.SchemeClass]planner.Scheme{
		planner.SchemeCore:         {ID: c.Schemes.Core.ID, Area: c.Schemes.Core.Area},
		planner.SchemeDistribution: {ID: c.Schemes.Distribution.ID, Area: c.Schemes.Distribution.Area},
		planner.SchemeAccess:       {ID: c.Schemes.Access.ID, Area: c.Schemes.Access.Area},
	}
	return table
}

// PlannerParams builds planning parameters for mode from the config
func (c *Config) PlannerParams(mode domain.PlanMode) planner.Params {
	return planner.Params{
		Mode:              mode,
		ASN:               c.Planning.ASN,
		Tiers:             c.TierTable(),
		Schemes:           c.SchemeTable(),
		IncludeOther:      c.Planning.IncludeOther,
		OtherTier:         c.Planning.OtherTier,
		Uniform:           c.Schemes.Uniform,
		LoopbackInterface: c.Schemes.Loopback,
	}
}

// Allocator returns a link address allocator for the configured pools
func (c *Config) Allocator() (addressing.Allocator, error) {
	return addressing.ParseAllocator(c.Addressing.IPv4Pool, c.Addressing.IPv6Base)
}

// Password reads the SSH password from the configured environment variable
func (c *Config) Password() string {
	return os.Getenv(c.Discovery.PasswordEnv)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	behavior := c.EffectiveBehavior()

	summary := fmt.Sprintf("Posture: %s, Kind: %s, User: %s\n", c.Posture, c.Discovery.Kind, c.Discovery.Username)
	summary += fmt.Sprintf("Probe timeout: %s, Session timeout: %s, Concurrency: %d\n",
		behavior.ProbeTimeout, behavior.SessionTimeout, behavior.MaxConcurrentSessions)
	summary += fmt.Sprintf("ASN: %d, Schemes: %d/%d/%d, Pool: %s",
		c.Planning.ASN, c.Schemes.Core.ID, c.Schemes.Distribution.ID, c.Schemes.Access.ID, c.Addressing.IPv4Pool)

	return summary
}
