package sensors

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	sensorerrors "github.com/rcourtman/pulse-sysmon/internal/errors"
)

const (
	cpuMinColumns     = 6  // label + user nice system idle iowait
	cpuIdleColumn     = 4  // counting the label as column 0
	cpuIOWaitColumn   = 5
	netDevHeaderLines = 2
	netDevMinColumns  = 16
	netDevRxColumn    = 0
	netDevTxColumn    = 8
	diskMinColumns    = 14
	diskNameColumn    = 2
)

// diskColumns maps a counter pair to its (reads, writes) columns.
var diskColumns = map[DiskCounter][2]int{
	DiskCounterOperations: {3, 7},
	DiskCounterSectors:    {5, 9},
}

// parseCounter converts a decimal counter, treating anything unparsable as 0.
func parseCounter(field string) uint64 {
	v, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func lines(data []byte) *bufio.Scanner {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

// ParseCPUStat extracts the aggregate CPU counters from /proc/stat content.
// Only the first line is consulted and it must be the "cpu " aggregate.
func ParseCPUStat(source string, data []byte) (CPUStat, error) {
	first, _, _ := strings.Cut(string(data), "\n")
	if !strings.HasPrefix(first, "cpu ") {
		return CPUStat{}, sensorerrors.NewParseError(source, first, "first line is not the aggregate cpu line")
	}

	fields := strings.Fields(first)
	if len(fields) < cpuMinColumns {
		return CPUStat{}, sensorerrors.NewParseError(source, first, "expected at least %d columns, got %d", cpuMinColumns, len(fields))
	}

	var stat CPUStat
	for i, field := range fields[1:] {
		v := parseCounter(field)
		stat.Total += v
		switch i + 1 {
		case cpuIdleColumn:
			stat.Idle = v
		case cpuIOWaitColumn:
			stat.IOWait = v
		}
	}
	return stat, nil
}

// ParseMemInfo extracts MemTotal and MemAvailable from /proc/meminfo content.
// Lines that are not "Key: value [kB]" are skipped; both keys must be present.
func ParseMemInfo(source string, data []byte) (MemInfo, error) {
	var (
		info                    MemInfo
		haveTotal, haveAvailable bool
	)

	scanner := lines(data)
	for scanner.Scan() {
		line := scanner.Text()
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			if strings.TrimSpace(line) != "" {
				log.Trace().Str("source", source).Str("line", line).Msg("Skipping meminfo line without separator")
			}
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		value, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			log.Trace().Str("source", source).Str("line", line).Msg("Skipping meminfo line with non-numeric value")
			continue
		}

		switch strings.TrimSpace(key) {
		case "MemTotal":
			info.TotalKiB = value
			haveTotal = true
		case "MemAvailable":
			info.AvailableKiB = value
			haveAvailable = true
		}
	}
	if err := scanner.Err(); err != nil {
		return MemInfo{}, sensorerrors.WrapIOError("scan", source, err)
	}

	switch {
	case !haveTotal:
		return MemInfo{}, sensorerrors.NewParseError(source, "", "MemTotal not found")
	case !haveAvailable:
		return MemInfo{}, sensorerrors.NewParseError(source, "", "MemAvailable not found")
	}
	return info, nil
}

// ParseNetDev extracts per-interface byte counters from /proc/net/dev content.
// The two header lines are skipped. Each remaining line is split at the first
// ':' so that names glued to their first counter still parse.
func ParseNetDev(source string, data []byte) (NetDev, error) {
	var dev NetDev

	scanner := lines(data)
	for lineNo := 0; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if lineNo < netDevHeaderLines || strings.TrimSpace(line) == "" {
			continue
		}

		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return NetDev{}, sensorerrors.NewParseError(source, line, "missing ':' after interface name")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return NetDev{}, sensorerrors.NewParseError(source, line, "empty interface name")
		}

		fields := strings.Fields(rest)
		if len(fields) < netDevMinColumns {
			return NetDev{}, sensorerrors.NewParseError(source, line, "expected %d columns, got %d", netDevMinColumns, len(fields))
		}

		dev.Devices = append(dev.Devices, NetDevice{
			Name:    name,
			RxBytes: parseCounter(fields[netDevRxColumn]),
			TxBytes: parseCounter(fields[netDevTxColumn]),
		})
	}
	if err := scanner.Err(); err != nil {
		return NetDev{}, sensorerrors.WrapIOError("scan", source, err)
	}
	return dev, nil
}

// ParseDiskStats extracts per-device read and write counters from
// /proc/diskstats content.
func ParseDiskStats(source string, data []byte, counter DiskCounter) (DiskStats, error) {
	cols, ok := diskColumns[counter]
	if !ok {
		cols = diskColumns[DiskCounterOperations]
	}

	var stats DiskStats
	scanner := lines(data)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < diskMinColumns {
			return DiskStats{}, sensorerrors.NewParseError(source, line, "expected at least %d columns, got %d", diskMinColumns, len(fields))
		}

		stats.Devices = append(stats.Devices, DiskDevice{
			Name:   fields[diskNameColumn],
			Reads:  parseCounter(fields[cols[0]]),
			Writes: parseCounter(fields[cols[1]]),
		})
	}
	if err := scanner.Err(); err != nil {
		return DiskStats{}, sensorerrors.WrapIOError("scan", source, err)
	}
	return stats, nil
}
