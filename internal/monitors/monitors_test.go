package monitors

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sensorerrors "github.com/rcourtman/pulse-sysmon/internal/errors"
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
)

// scriptedReader returns the queued snapshots and errors in order.
type scriptedReader[T any] struct {
	steps []step[T]
	calls int
}

type step[T any] struct {
	value T
	err   error
}

func (r *scriptedReader[T]) Read() (T, error) {
	s := r.steps[r.calls]
	r.calls++
	return s.value, s.err
}

func ok[T any](v T) step[T] { return step[T]{value: v} }

func fail[T any](err error) step[T] { return step[T]{err: err} }

type fakeInterfaces map[string]bool

func (f fakeInterfaces) IsPhysical(name string) bool { return f[name] }

func TestCPUMonitorScenario(t *testing.T) {
	reader := &scriptedReader[sensors.CPUStat]{steps: []step[sensors.CPUStat]{
		ok(sensors.CPUStat{Idle: 100, IOWait: 50, Total: 500}),
		ok(sensors.CPUStat{Idle: 200, IOWait: 60, Total: 700}),
	}}
	m := NewCPUMonitor(reader, 2)

	first, err := m.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 70.0, first.Percent, 1e-9)

	second, err := m.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 57.5, second.Percent, 1e-9)
}

func TestCPUMonitorWindowOfOne(t *testing.T) {
	reader := &scriptedReader[sensors.CPUStat]{steps: []step[sensors.CPUStat]{
		ok(sensors.CPUStat{Idle: 100, IOWait: 50, Total: 500}),
		ok(sensors.CPUStat{Idle: 200, IOWait: 60, Total: 700}),
	}}
	m := NewCPUMonitor(reader, 0)

	_, err := m.Poll()
	require.NoError(t, err)
	second, err := m.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 45.0, second.Percent, 1e-9)
}

func TestCPUMonitorZeroDeltaIsNotFinite(t *testing.T) {
	snap := sensors.CPUStat{Idle: 100, IOWait: 0, Total: 400}
	reader := &scriptedReader[sensors.CPUStat]{steps: []step[sensors.CPUStat]{ok(snap), ok(snap)}}
	m := NewCPUMonitor(reader, 1)

	_, err := m.Poll()
	require.NoError(t, err)
	usage, err := m.Poll()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(usage.Percent), "0/0 should propagate as NaN, got %v", usage.Percent)
}

func TestCPUMonitorErrorLeavesStateUntouched(t *testing.T) {
	readErr := sensorerrors.WrapIOError("read", "/proc/stat", errors.New("boom"))
	reader := &scriptedReader[sensors.CPUStat]{steps: []step[sensors.CPUStat]{
		ok(sensors.CPUStat{Idle: 100, IOWait: 50, Total: 500}),
		fail[sensors.CPUStat](readErr),
		ok(sensors.CPUStat{Idle: 200, IOWait: 60, Total: 700}),
	}}
	m := NewCPUMonitor(reader, 1)

	_, err := m.Poll()
	require.NoError(t, err)

	usage, err := m.Poll()
	require.Same(t, readErr, err)
	assert.Equal(t, CPUUsage{}, usage)

	usage, err = m.Poll()
	require.NoError(t, err)
	assert.InDelta(t, 45.0, usage.Percent, 1e-9, "delta should be against the last good snapshot")
}

func TestMemoryMonitor(t *testing.T) {
	reader := &scriptedReader[sensors.MemInfo]{steps: []step[sensors.MemInfo]{
		ok(sensors.MemInfo{TotalKiB: 1000, AvailableKiB: 400}),
		ok(sensors.MemInfo{TotalKiB: 1000, AvailableKiB: 200}),
		ok(sensors.MemInfo{TotalKiB: 1200, AvailableKiB: 1300}),
		ok(sensors.MemInfo{TotalKiB: 1200, AvailableKiB: 1100}),
	}}
	m := NewMemoryMonitor(reader, 2)

	want := []MemoryUsage{
		{TotalKiB: 1000, UsedKiB: 600},
		{TotalKiB: 1000, UsedKiB: 700},
		{TotalKiB: 1200, UsedKiB: 400}, // available > total saturates to 0
		{TotalKiB: 1200, UsedKiB: 50},
	}
	for i, w := range want {
		got, err := m.Poll()
		require.NoError(t, err)
		assert.Equal(t, w, got, "poll %d", i+1)
	}
}

func TestMemoryMonitorErrorPropagates(t *testing.T) {
	parseErr := sensorerrors.NewParseError("/proc/meminfo", "", "MemTotal not found")
	reader := &scriptedReader[sensors.MemInfo]{steps: []step[sensors.MemInfo]{
		ok(sensors.MemInfo{TotalKiB: 100, AvailableKiB: 50}),
		fail[sensors.MemInfo](parseErr),
		ok(sensors.MemInfo{TotalKiB: 100, AvailableKiB: 30}),
	}}
	m := NewMemoryMonitor(reader, 3)

	_, err := m.Poll()
	require.NoError(t, err)
	_, err = m.Poll()
	assert.Equal(t, parseErr.Error(), err.Error())

	got, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, uint64(60), got.UsedKiB, "failed poll must not push a sample")
}

func TestDiskMonitorScenario(t *testing.T) {
	disk := func(n uint64) sensors.DiskStats {
		return sensors.DiskStats{Devices: []sensors.DiskDevice{{Name: "nvme0n1", Reads: n, Writes: n}}}
	}
	reader := &scriptedReader[sensors.DiskStats]{steps: []step[sensors.DiskStats]{
		ok(disk(1000)), ok(disk(2000)), ok(disk(3000)),
	}}
	m := NewDiskMonitor(reader, 3)

	want := []uint64{0, 500, 666}
	for i, w := range want {
		got, err := m.Poll()
		require.NoError(t, err)
		assert.Equal(t, DiskUsage{Reads: w, Writes: w}, got, "poll %d", i+1)
	}
}

func TestDiskMonitorSkipsNonLogicalDevices(t *testing.T) {
	snap := func(n uint64) sensors.DiskStats {
		return sensors.DiskStats{Devices: []sensors.DiskDevice{
			{Name: "sda", Reads: n, Writes: 2 * n},
			{Name: "sda1", Reads: 1_000_000 * n, Writes: 1_000_000 * n},
			{Name: "loop0", Reads: 500 * n, Writes: 500 * n},
			{Name: "dm-0", Reads: 700 * n, Writes: 700 * n},
			{Name: "nvme0n1p2", Reads: 900 * n, Writes: 900 * n},
		}}
	}
	reader := &scriptedReader[sensors.DiskStats]{steps: []step[sensors.DiskStats]{ok(snap(1)), ok(snap(11))}}
	m := NewDiskMonitor(reader, 1)

	_, err := m.Poll()
	require.NoError(t, err)
	got, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, DiskUsage{Reads: 10, Writes: 20}, got)
}

func TestNetworkMonitorFirstPollGuardAndFiltering(t *testing.T) {
	snap := func(eth, veth uint64) sensors.NetDev {
		return sensors.NetDev{Devices: []sensors.NetDevice{
			{Name: "lo", RxBytes: 10 * veth, TxBytes: 10 * veth},
			{Name: "eth0", RxBytes: eth, TxBytes: eth / 2},
			{Name: "veth1234", RxBytes: veth, TxBytes: veth},
		}}
	}
	reader := &scriptedReader[sensors.NetDev]{steps: []step[sensors.NetDev]{
		ok(snap(1_000_000, 5)),
		ok(snap(1_004_000, 9_999_999)),
		ok(snap(1_010_000, 1)),
	}}
	m := NewNetworkMonitor(reader, fakeInterfaces{"eth0": true}, 4)

	first, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, NetworkUsage{}, first, "first poll must not report since-boot totals")

	second, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, NetworkUsage{RxBytes: 2000, TxBytes: 1000}, second)

	third, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, NetworkUsage{RxBytes: 3333, TxBytes: 1666}, third)
}

func TestCounterDecreaseClampsToZero(t *testing.T) {
	snap := func(rx, tx uint64) sensors.NetDev {
		return sensors.NetDev{Devices: []sensors.NetDevice{{Name: "eth0", RxBytes: rx, TxBytes: tx}}}
	}
	reader := &scriptedReader[sensors.NetDev]{steps: []step[sensors.NetDev]{
		ok(snap(5000, 5000)),
		ok(snap(100, 6000)), // rx counter reset
		ok(snap(400, 6500)),
	}}
	m := NewNetworkMonitor(reader, fakeInterfaces{"eth0": true}, 1)

	_, err := m.Poll()
	require.NoError(t, err)

	got, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, NetworkUsage{RxBytes: 0, TxBytes: 1000}, got)

	got, err = m.Poll()
	require.NoError(t, err)
	assert.Equal(t, NetworkUsage{RxBytes: 300, TxBytes: 500}, got, "baseline follows the reset value")
}

func TestCounterMonitorErrorKeepsBaseline(t *testing.T) {
	disk := func(n uint64) sensors.DiskStats {
		return sensors.DiskStats{Devices: []sensors.DiskDevice{{Name: "sdb", Reads: n, Writes: n}}}
	}
	readErr := errors.New("read /proc/diskstats: permission denied")
	reader := &scriptedReader[sensors.DiskStats]{steps: []step[sensors.DiskStats]{
		ok(disk(100)),
		fail[sensors.DiskStats](readErr),
		ok(disk(160)),
	}}
	m := NewDiskMonitor(reader, 1)

	_, err := m.Poll()
	require.NoError(t, err)

	got, err := m.Poll()
	assert.Equal(t, readErr, err)
	assert.Equal(t, DiskUsage{}, got)

	got, err = m.Poll()
	require.NoError(t, err)
	assert.Equal(t, DiskUsage{Reads: 60, Writes: 60}, got)
}

func TestReadings(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		family Family
		want   []Reading
	}{
		{
			name:   "cpu",
			result: CPUUsage{Percent: 12.5},
			family: FamilyCPU,
			want:   []Reading{{Direction: DirectionTotal, Value: 12.5}},
		},
		{
			name:   "memory",
			result: MemoryUsage{TotalKiB: 2048, UsedKiB: 512},
			family: FamilyMemory,
			want:   []Reading{{Direction: DirectionTotal, Value: 2048}, {Direction: DirectionUsed, Value: 512}},
		},
		{
			name:   "network",
			result: NetworkUsage{RxBytes: 10, TxBytes: 20},
			family: FamilyNetwork,
			want:   []Reading{{Direction: DirectionDownload, Value: 10}, {Direction: DirectionUpload, Value: 20}},
		},
		{
			name:   "disk",
			result: DiskUsage{Reads: 3, Writes: 4},
			family: FamilyDisk,
			want:   []Reading{{Direction: DirectionRead, Value: 3}, {Direction: DirectionWrite, Value: 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.family, tt.result.Family())
			assert.Equal(t, tt.want, tt.result.Readings())
		})
	}
}

func TestSatSub(t *testing.T) {
	assert.Equal(t, uint64(5), satSub(10, 5))
	assert.Equal(t, uint64(0), satSub(5, 10))
	assert.Equal(t, uint64(0), satSub(0, math.MaxUint64))
}
