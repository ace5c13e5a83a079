// Package pprof records Go runtime profiles for the duration of one
// command, so slow solves and large batches can be inspected with
// `go tool pprof`.
//
// Usage:
//
//	session, err := pprof.Start(&pprof.Config{
//	    Enabled:   true,
//	    OutputDir: "./pprof",
//	    Profiles:  []pprof.ProfileType{pprof.ProfileCPU, pprof.ProfileHeap},
//	})
//	if err != nil {
//	    return err
//	}
//	defer session.Stop()
package pprof

import (
	"fmt"
	"strings"
)

// ProfileType defines the type of profile to collect.
type ProfileType string

const (
	ProfileCPU       ProfileType = "cpu"
	ProfileHeap      ProfileType = "heap"
	ProfileGoroutine ProfileType = "goroutine"
	ProfileBlock     ProfileType = "block"
	ProfileMutex     ProfileType = "mutex"
	ProfileAllocs    ProfileType = "allocs"
)

// AllProfileTypes returns all supported profile types.
func AllProfileTypes() []ProfileType {
	return []ProfileType{
		ProfileCPU,
		ProfileHeap,
		ProfileGoroutine,
		ProfileBlock,
		ProfileMutex,
		ProfileAllocs,
	}
}

// DefaultProfileTypes returns the default profile types to collect.
func DefaultProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap}
}

// ParseProfileTypes parses a comma-separated string into profile types.
func ParseProfileTypes(s string) ([]ProfileType, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultProfileTypes(), nil
	}

	valid := make(map[ProfileType]bool)
	for _, pt := range AllProfileTypes() {
		valid[pt] = true
	}

	parts := strings.Split(s, ",")
	types := make([]ProfileType, 0, len(parts))
	for _, p := range parts {
		pt := ProfileType(strings.TrimSpace(strings.ToLower(p)))
		if !valid[pt] {
			return nil, fmt.Errorf("unknown profile type: %q", p)
		}
		types = append(types, pt)
	}
	return types, nil
}

// Config holds the pprof configuration.
type Config struct {
	// Enabled indicates whether profiles are recorded.
	Enabled bool `mapstructure:"enabled"`

	// OutputDir receives one <type>.pprof file per profile.
	OutputDir string `mapstructure:"output_dir"`

	// Profiles specifies which profile types to collect.
	Profiles []ProfileType `mapstructure:"profiles"`
}

// DefaultConfig returns a disabled Config with default values.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "./pprof",
		Profiles:  DefaultProfileTypes(),
	}
}

// HasProfile reports whether pt is requested.
func (c *Config) HasProfile(pt ProfileType) bool {
	for _, p := range c.Profiles {
		if p == pt {
			return true
		}
	}
	return false
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.OutputDir == "" {
		return fmt.Errorf("pprof output directory is required")
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("at least one profile type is required")
	}
	for _, pt := range c.Profiles {
		if _, err := ParseProfileTypes(string(pt)); err != nil {
			return err
		}
	}
	return nil
}
