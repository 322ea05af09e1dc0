package sensors

// CPUStat holds the aggregate CPU tick counters read at one instant.
type CPUStat struct {
	Idle   uint64
	IOWait uint64
	Total  uint64 // sum of every column on the aggregate line
}

// MemInfo holds the memory gauges read at one instant, in kibibytes.
type MemInfo struct {
	TotalKiB     uint64
	AvailableKiB uint64
}

// NetDevice is one row of /proc/net/dev.
type NetDevice struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
}

// NetDev holds every interface row read at one instant.
type NetDev struct {
	Devices []NetDevice
}

// DiskDevice is one row of /proc/diskstats.
type DiskDevice struct {
	Name   string
	Reads  uint64
	Writes uint64
}

// DiskStats holds every block device row read at one instant.
type DiskStats struct {
	Devices []DiskDevice
}

// DiskCounter selects which /proc/diskstats counter pair a reader extracts.
type DiskCounter string

const (
	// DiskCounterOperations extracts reads and writes completed.
	DiskCounterOperations DiskCounter = "operations"
	// DiskCounterSectors extracts sectors read and written.
	DiskCounterSectors DiskCounter = "sectors"
)

// Valid reports whether c is a known counter pair.
func (c DiskCounter) Valid() bool {
	return c == DiskCounterOperations || c == DiskCounterSectors
}
