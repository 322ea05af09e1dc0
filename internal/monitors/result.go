// Package monitors turns raw counter snapshots into smoothed usage values.
//
// Every monitor owns its reader, its previous-counter state and a bounded
// sample window. Monitors are not safe for concurrent use; a single
// scheduler goroutine owns each one for its whole life.
package monitors

// Family names one of the four fixed metric families.
type Family string

const (
	FamilyCPU     Family = "cpu"
	FamilyMemory  Family = "memory"
	FamilyNetwork Family = "network"
	FamilyDisk    Family = "disk"
)

// Families lists every metric family in display order.
var Families = []Family{FamilyCPU, FamilyMemory, FamilyNetwork, FamilyDisk}

// Direction tags one value of a result.
type Direction string

const (
	DirectionTotal    Direction = "total"
	DirectionUsed     Direction = "used"
	DirectionDownload Direction = "download"
	DirectionUpload   Direction = "upload"
	DirectionRead     Direction = "read"
	DirectionWrite    Direction = "write"
)

// Reading is a single direction-tagged value of a result.
type Reading struct {
	Direction Direction `json:"direction"`
	Value     float64   `json:"value"`
}

// Result is the smoothed value produced by one poll.
type Result interface {
	Family() Family
	Readings() []Reading
}

// Compile-time guards.
var (
	_ Result = CPUUsage{}
	_ Result = MemoryUsage{}
	_ Result = NetworkUsage{}
	_ Result = DiskUsage{}
)

// CPUUsage is the windowed mean busy percentage across all CPUs.
type CPUUsage struct {
	Percent float64 `json:"percent"`
}

func (CPUUsage) Family() Family { return FamilyCPU }

func (u CPUUsage) Readings() []Reading {
	return []Reading{{Direction: DirectionTotal, Value: u.Percent}}
}

// MemoryUsage carries the latest total and the windowed mean of used memory.
type MemoryUsage struct {
	TotalKiB uint64 `json:"total_kib"`
	UsedKiB  uint64 `json:"used_kib"`
}

func (MemoryUsage) Family() Family { return FamilyMemory }

func (u MemoryUsage) Readings() []Reading {
	return []Reading{
		{Direction: DirectionTotal, Value: float64(u.TotalKiB)},
		{Direction: DirectionUsed, Value: float64(u.UsedKiB)},
	}
}

// NetworkUsage carries the mean bytes transferred per interval.
type NetworkUsage struct {
	RxBytes uint64 `json:"rx_bytes"`
	TxBytes uint64 `json:"tx_bytes"`
}

func (NetworkUsage) Family() Family { return FamilyNetwork }

func (u NetworkUsage) Readings() []Reading {
	return []Reading{
		{Direction: DirectionDownload, Value: float64(u.RxBytes)},
		{Direction: DirectionUpload, Value: float64(u.TxBytes)},
	}
}

// DiskUsage carries the mean operations (or sectors) per interval.
type DiskUsage struct {
	Reads  uint64 `json:"reads"`
	Writes uint64 `json:"writes"`
}

func (DiskUsage) Family() Family { return FamilyDisk }

func (u DiskUsage) Readings() []Reading {
	return []Reading{
		{Direction: DirectionRead, Value: float64(u.Reads)},
		{Direction: DirectionWrite, Value: float64(u.Writes)},
	}
}

// satSub returns a-b, or 0 when b > a.
func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
