package config

import "time"

// Posture defines how hard discovery leans on the lab devices
type Posture string

const (
	PostureCautious   Posture = "cautious"   // One session at a time, generous timeouts
	PostureBalanced   Posture = "balanced"   // Default lab behavior
	PostureAggressive Posture = "aggressive" // Wide fan-out, short timeouts
)

// ParsePosture converts a string to Posture, defaulting to PostureBalanced
func ParsePosture(s string) Posture {
	switch s {
	case "cautious":
		return PostureCautious
	case "balanced":
		return PostureBalanced
	case "aggressive":
		return PostureAggressive
	default:
		return PostureBalanced
	}
}

// BehaviorProfile defines discovery timing and concurrency settings
type BehaviorProfile struct {
	ProbeTimeout          time.Duration `yaml:"probe_timeout"`
	SessionTimeout        time.Duration `yaml:"session_timeout"`
	MaxConcurrentSessions int           `yaml:"max_concurrent_sessions"`
	MaxRetries            int           `yaml:"max_retries"`
	// NmapTiming is the nmap timing template, 0 (paranoid) to 5 (insane)
	NmapTiming int `yaml:"nmap_timing"`
}

// PostureProfiles maps postures to their default behavior profiles
var PostureProfiles = map[Posture]BehaviorProfile{
	PostureCautious: {
		ProbeTimeout:          5 * time.Second,
		SessionTimeout:        60 * time.Second,
		MaxConcurrentSessions: 1,
		MaxRetries:            2,
		NmapTiming:            2,
	},
	PostureBalanced: {
		ProbeTimeout:          2 * time.Second,
		SessionTimeout:        30 * time.Second,
		MaxConcurrentSessions: 8,
		MaxRetries:            1,
		NmapTiming:            3,
	},
	PostureAggressive: {
		ProbeTimeout:          1 * time.Second,
		SessionTimeout:        15 * time.Second,
		MaxConcurrentSessions: 32,
		MaxRetries:            0,
		NmapTiming:            4,
	},
}

// GetProfile returns the behavior profile for a posture
func (p Posture) GetProfile() BehaviorProfile {
	if profile, ok := PostureProfiles[p]; ok {
		return profile
	}
	return PostureProfiles[PostureBalanced]
}
