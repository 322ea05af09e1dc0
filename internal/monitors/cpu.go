package monitors

import (
	"github.com/rcourtman/pulse-sysmon/internal/buffer"
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
)

// CPUMonitor derives busy percentage from successive /proc/stat snapshots.
//
// The previous totals start at zero, so the first poll reports usage since
// boot rather than since the monitor started.
type CPUMonitor struct {
	reader    sensors.Reader[sensors.CPUStat]
	prevIdle  uint64
	prevTotal uint64
	window    *buffer.Window[float64]
}

// NewCPUMonitor creates a CPU monitor averaging over maxSamples polls.
func NewCPUMonitor(reader sensors.Reader[sensors.CPUStat], maxSamples int) *CPUMonitor {
	return &CPUMonitor{
		reader: reader,
		window: buffer.New[float64](maxSamples),
	}
}

// Poll reads a fresh snapshot and returns the windowed mean usage. A zero
// tick delta is not guarded and yields a non-finite percentage.
func (m *CPUMonitor) Poll() (CPUUsage, error) {
	stat, err := m.reader.Read()
	if err != nil {
		return CPUUsage{}, err
	}

	idle := stat.Idle + stat.IOWait
	idleDelta := satSub(idle, m.prevIdle)
	totalDelta := satSub(stat.Total, m.prevTotal)
	usage := 100 * (1 - float64(idleDelta)/float64(totalDelta))

	m.window.Push(usage)
	m.prevIdle = idle
	m.prevTotal = stat.Total

	return CPUUsage{Percent: buffer.MeanFloat64(m.window)}, nil
}
