package monitors

import (
	"github.com/rcourtman/pulse-sysmon/internal/buffer"
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
)

// MemoryMonitor averages used memory over a bounded window. Memory values are
// gauges, so no previous-counter state is kept.
type MemoryMonitor struct {
	reader sensors.Reader[sensors.MemInfo]
	window *buffer.Window[uint64]
}

// NewMemoryMonitor creates a memory monitor averaging over maxSamples polls.
func NewMemoryMonitor(reader sensors.Reader[sensors.MemInfo], maxSamples int) *MemoryMonitor {
	return &MemoryMonitor{
		reader: reader,
		window: buffer.New[uint64](maxSamples),
	}
}

// Poll returns the latest total alongside the truncating mean of used memory.
func (m *MemoryMonitor) Poll() (MemoryUsage, error) {
	info, err := m.reader.Read()
	if err != nil {
		return MemoryUsage{}, err
	}

	m.window.Push(satSub(info.TotalKiB, info.AvailableKiB))

	return MemoryUsage{
		TotalKiB: info.TotalKiB,
		UsedKiB:  buffer.MeanUint64(m.window),
	}, nil
}
