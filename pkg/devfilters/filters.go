package devfilters

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultSysRoot is where sysfs is mounted on a normal Linux host.
const DefaultSysRoot = "/sys"

// nvmeNamespacePattern matches a whole NVMe namespace (nvme0n1) but not one of
// its partitions (nvme0n1p2).
var nvmeNamespacePattern = regexp.MustCompile(`^nvme\d+n\d+$`)

// nvmePartitionPattern matches only namespace partitions. Controllers (nvme0)
// and multipath paths (nvme0c0n1) are not partitions.
var nvmePartitionPattern = regexp.MustCompile(`^nvme\d+n\d+p\d+$`)

// wholeDiskPrefixes are SCSI/SATA and legacy IDE disks. A trailing digit marks
// a partition (sda1, hdb3).
var wholeDiskPrefixes = []string{"sd", "hd"}

var skippedDiskPatterns = []struct {
	reason   string
	prefixes []string
}{
	{reason: "loop", prefixes: []string{"loop"}},
	{reason: "device-mapper", prefixes: []string{"dm-"}},
	{reason: "ram", prefixes: []string{"ram", "zram"}},
	{reason: "optical", prefixes: []string{"sr"}},
	{reason: "software-raid", prefixes: []string{"md"}},
}

// IsLogicalDisk reports whether a /proc/diskstats device name is a whole
// disk whose counters should contribute to disk throughput.
func IsLogicalDisk(name string) bool {
	if nvmeNamespacePattern.MatchString(name) {
		return true
	}
	for _, prefix := range wholeDiskPrefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) && !endsInDigit(name) {
			return true
		}
	}
	return false
}

// DiskSkipReason returns a label explaining why a device is excluded from
// disk aggregation, along with a boolean indicating whether it is excluded.
func DiskSkipReason(name string) (string, bool) {
	if IsLogicalDisk(name) {
		return "", false
	}

	for _, pattern := range skippedDiskPatterns {
		for _, prefix := range pattern.prefixes {
			if strings.HasPrefix(name, prefix) {
				return pattern.reason, true
			}
		}
	}

	if nvmePartitionPattern.MatchString(name) {
		return "partition", true
	}
	for _, prefix := range wholeDiskPrefixes {
		if strings.HasPrefix(name, prefix) && endsInDigit(name) {
			return "partition", true
		}
	}

	return "unsupported", true
}

func endsInDigit(name string) bool {
	if name == "" {
		return false
	}
	last := name[len(name)-1]
	return last >= '0' && last <= '9'
}

// InterfaceClassifier decides which network interfaces count toward
// throughput totals.
type InterfaceClassifier interface {
	IsPhysical(name string) bool
}

// SysfsInterfaces classifies interfaces by the presence of a backing device
// under <Root>/class/net/<name>/device. Loopback, bridges, veth pairs,
// tun/tap and most other virtual interfaces have no such link.
type SysfsInterfaces struct {
	Root string
}

// Compile-time guard.
var _ InterfaceClassifier = SysfsInterfaces{}

// IsPhysical implements InterfaceClassifier.
func (s SysfsInterfaces) IsPhysical(name string) bool {
	root := s.Root
	if root == "" {
		root = DefaultSysRoot
	}
	return IsPhysicalInterface(root, name)
}

// IsPhysicalInterface reports whether the interface has a backing device
// descriptor in sysfs. Only existence is checked.
func IsPhysicalInterface(sysRoot, name string) bool {
	if name == "" || strings.ContainsRune(name, '/') || name == "." || name == ".." {
		return false
	}
	_, err := os.Stat(filepath.Join(sysRoot, "class", "net", name, "device"))
	return err == nil
}
