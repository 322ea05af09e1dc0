// Package sensors reads raw kernel counters from procfs into typed snapshots.
package sensors

import (
	"os"
	"path/filepath"

	sensorerrors "github.com/rcourtman/pulse-sysmon/internal/errors"
)

// DefaultProcRoot is where procfs is mounted on a normal Linux host.
const DefaultProcRoot = "/proc"

// Reader performs one synchronous read of a counter source. Every call opens
// and parses the source afresh; nothing is cached and nothing is retried.
type Reader[T any] interface {
	Read() (T, error)
}

// Compile-time guards.
var (
	_ Reader[CPUStat]   = (*CPUStatReader)(nil)
	_ Reader[MemInfo]   = (*MemInfoReader)(nil)
	_ Reader[NetDev]    = (*NetDevReader)(nil)
	_ Reader[DiskStats] = (*DiskStatsReader)(nil)
)

// System call wrappers for testing
var readFile = os.ReadFile

func procPath(procRoot string, elem ...string) string {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	return filepath.Join(append([]string{procRoot}, elem...)...)
}

func readSource(path string) ([]byte, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, sensorerrors.WrapIOError("read", path, err)
	}
	return data, nil
}

// CPUStatReader reads the aggregate CPU line of /proc/stat.
type CPUStatReader struct {
	path string
}

// NewCPUStatReader returns a reader for <procRoot>/stat.
func NewCPUStatReader(procRoot string) *CPUStatReader {
	return &CPUStatReader{path: procPath(procRoot, "stat")}
}

// Path returns the file this reader consumes.
func (r *CPUStatReader) Path() string { return r.path }

// Read implements Reader.
func (r *CPUStatReader) Read() (CPUStat, error) {
	data, err := readSource(r.path)
	if err != nil {
		return CPUStat{}, err
	}
	return ParseCPUStat(r.path, data)
}

// MemInfoReader reads MemTotal and MemAvailable from /proc/meminfo.
type MemInfoReader struct {
	path string
}

// NewMemInfoReader returns a reader for <procRoot>/meminfo.
func NewMemInfoReader(procRoot string) *MemInfoReader {
	return &MemInfoReader{path: procPath(procRoot, "meminfo")}
}

// Path returns the file this reader consumes.
func (r *MemInfoReader) Path() string { return r.path }

// Read implements Reader.
func (r *MemInfoReader) Read() (MemInfo, error) {
	data, err := readSource(r.path)
	if err != nil {
		return MemInfo{}, err
	}
	return ParseMemInfo(r.path, data)
}

// NetDevReader reads per-interface byte counters from /proc/net/dev.
type NetDevReader struct {
	path string
}

// NewNetDevReader returns a reader for <procRoot>/net/dev.
func NewNetDevReader(procRoot string) *NetDevReader {
	return &NetDevReader{path: procPath(procRoot, "net", "dev")}
}

// Path returns the file this reader consumes.
func (r *NetDevReader) Path() string { return r.path }

// Read implements Reader.
func (r *NetDevReader) Read() (NetDev, error) {
	data, err := readSource(r.path)
	if err != nil {
		return NetDev{}, err
	}
	return ParseNetDev(r.path, data)
}

// DiskStatsReader reads per-device I/O counters from /proc/diskstats.
type DiskStatsReader struct {
	path    string
	counter DiskCounter
}

// NewDiskStatsReader returns a reader for <procRoot>/diskstats extracting the
// given counter pair. An unknown counter falls back to operations.
func NewDiskStatsReader(procRoot string, counter DiskCounter) *DiskStatsReader {
	if !counter.Valid() {
		counter = DiskCounterOperations
	}
	return &DiskStatsReader{path: procPath(procRoot, "diskstats"), counter: counter}
}

// Path returns the file this reader consumes.
func (r *DiskStatsReader) Path() string { return r.path }

// Counter returns the counter pair extracted per device.
func (r *DiskStatsReader) Counter() DiskCounter { return r.counter }

// Read implements Reader.
func (r *DiskStatsReader) Read() (DiskStats, error) {
	data, err := readSource(r.path)
	if err != nil {
		return DiskStats{}, err
	}
	return ParseDiskStats(r.path, data, r.counter)
}
