package scheduler

import (
	"github.com/rcourtman/pulse-sysmon/internal/config"
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
	"github.com/rcourtman/pulse-sysmon/pkg/devfilters"
)

// Sources are the counter readers and the interface classifier one
// generation polls. Readers for disabled families may be nil.
type Sources struct {
	CPU        sensors.Reader[sensors.CPUStat]
	Memory     sensors.Reader[sensors.MemInfo]
	Network    sensors.Reader[sensors.NetDev]
	Disk       sensors.Reader[sensors.DiskStats]
	Interfaces devfilters.InterfaceClassifier
}

// SourceFactory builds the sources for a configuration.
type SourceFactory func(cfg config.Config) Sources

// ProcSources reads the host's procfs and sysfs under the configured roots.
func ProcSources(cfg config.Config) Sources {
	return Sources{
		CPU:        sensors.NewCPUStatReader(cfg.ProcRoot),
		Memory:     sensors.NewMemInfoReader(cfg.ProcRoot),
		Network:    sensors.NewNetDevReader(cfg.ProcRoot),
		Disk:       sensors.NewDiskStatsReader(cfg.ProcRoot, cfg.Disk.Counter),
		Interfaces: devfilters.SysfsInterfaces{Root: cfg.SysRoot},
	}
}
