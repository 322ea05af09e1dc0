package monitors

import (
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
	"github.com/rcourtman/pulse-sysmon/pkg/devfilters"
)

// DiskMonitor averages reads and writes per interval across whole disks.
type DiskMonitor struct {
	reader   sensors.Reader[sensors.DiskStats]
	include  func(name string) bool
	counters counterMonitor
}

// NewDiskMonitor creates a disk monitor that counts only logical disks, so
// partitions are never double counted with their parent.
func NewDiskMonitor(reader sensors.Reader[sensors.DiskStats], maxSamples int) *DiskMonitor {
	return &DiskMonitor{
		reader:   reader,
		include:  devfilters.IsLogicalDisk,
		counters: newCounterMonitor(maxSamples),
	}
}

// Poll sums read/write counters over logical disks and returns the windowed
// mean delta per direction. On a read error nothing is updated.
func (m *DiskMonitor) Poll() (DiskUsage, error) {
	stats, err := m.reader.Read()
	if err != nil {
		return DiskUsage{}, err
	}

	var reads, writes uint64
	for _, d := range stats.Devices {
		if !m.include(d.Name) {
			continue
		}
		reads += d.Reads
		writes += d.Writes
	}

	meanReads, meanWrites := m.counters.observe(reads, writes)
	return DiskUsage{Reads: meanReads, Writes: meanWrites}, nil
}
