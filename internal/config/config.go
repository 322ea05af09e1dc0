// Package config holds the sampling configuration and its loading rules.
package config

import (
	"fmt"
	"time"

	"github.com/rcourtman/pulse-sysmon/internal/monitors"
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
	"github.com/rcourtman/pulse-sysmon/pkg/devfilters"
)

const (
	// MinInterval is the shortest polling interval accepted for any family.
	MinInterval = 250 * time.Millisecond
	// MinSamples is the smallest accepted window capacity.
	MinSamples = 1
	// DefaultInterval applies to every family unless overridden.
	DefaultInterval = time.Second
)

// PollConfig is the per-family polling configuration.
type PollConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	MaxSamples int           `yaml:"max_samples"`
}

// DiskConfig adds the counter precision to the disk family.
type DiskConfig struct {
	PollConfig `yaml:",inline"`
	Counter    sensors.DiskCounter `yaml:"counter"`
}

// LogConfig mirrors the logging flags so they can live in the file too.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// Config is one complete scheduler configuration. Values are comparable so a
// reload can be detected with ==.
type Config struct {
	ProcRoot       string     `yaml:"proc_root"`
	SysRoot        string     `yaml:"sys_root"`
	CPU            PollConfig `yaml:"cpu"`
	Memory         PollConfig `yaml:"memory"`
	Network        PollConfig `yaml:"network"`
	Disk           DiskConfig `yaml:"disk"`
	Log            LogConfig  `yaml:"log"`
	MetricsAddress string     `yaml:"metrics_address,omitempty"`
}

// Default returns the stock configuration: every family enabled on a one
// second interval, with window sizes of 4 (cpu), 2 (memory), 4 (network)
// and 3 (disk).
func Default() Config {
	return Config{
		ProcRoot: sensors.DefaultProcRoot,
		SysRoot:  devfilters.DefaultSysRoot,
		CPU:      PollConfig{Enabled: true, Interval: DefaultInterval, MaxSamples: 4},
		Memory:   PollConfig{Enabled: true, Interval: DefaultInterval, MaxSamples: 2},
		Network:  PollConfig{Enabled: true, Interval: DefaultInterval, MaxSamples: 4},
		Disk: DiskConfig{
			PollConfig: PollConfig{Enabled: true, Interval: DefaultInterval, MaxSamples: 3},
			Counter:    sensors.DiskCounterOperations,
		},
		Log: LogConfig{Level: "info", Format: "auto"},
	}
}

// Poll returns the polling configuration for a family.
func (c Config) Poll(family monitors.Family) PollConfig {
	switch family {
	case monitors.FamilyCPU:
		return c.CPU
	case monitors.FamilyMemory:
		return c.Memory
	case monitors.FamilyNetwork:
		return c.Network
	case monitors.FamilyDisk:
		return c.Disk.PollConfig
	default:
		return PollConfig{}
	}
}

func (c *Config) poll(family monitors.Family) *PollConfig {
	switch family {
	case monitors.FamilyCPU:
		return &c.CPU
	case monitors.FamilyMemory:
		return &c.Memory
	case monitors.FamilyNetwork:
		return &c.Network
	case monitors.FamilyDisk:
		return &c.Disk.PollConfig
	default:
		return nil
	}
}

// EnabledFamilies lists the families that will get a monitor.
func (c Config) EnabledFamilies() []monitors.Family {
	var out []monitors.Family
	for _, f := range monitors.Families {
		if c.Poll(f).Enabled {
			out = append(out, f)
		}
	}
	return out
}

// Normalize clamps intervals and window sizes to their floors and fills in
// empty roots and an unknown disk counter. It returns a description of every
// adjustment made.
func (c *Config) Normalize() []string {
	var adjustments []string

	for _, f := range monitors.Families {
		p := c.poll(f)
		if p.Interval < MinInterval {
			adjustments = append(adjustments, fmt.Sprintf("%s interval %s raised to %s", f, p.Interval, MinInterval))
			p.Interval = MinInterval
		}
		if p.MaxSamples < MinSamples {
			adjustments = append(adjustments, fmt.Sprintf("%s max_samples %d raised to %d", f, p.MaxSamples, MinSamples))
			p.MaxSamples = MinSamples
		}
	}

	if !c.Disk.Counter.Valid() {
		adjustments = append(adjustments, fmt.Sprintf("disk counter %q replaced with %q", c.Disk.Counter, sensors.DiskCounterOperations))
		c.Disk.Counter = sensors.DiskCounterOperations
	}
	if c.ProcRoot == "" {
		c.ProcRoot = sensors.DefaultProcRoot
	}
	if c.SysRoot == "" {
		c.SysRoot = devfilters.DefaultSysRoot
	}

	return adjustments
}
