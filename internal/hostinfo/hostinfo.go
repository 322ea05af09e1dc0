// Package hostinfo describes the machine being sampled, for startup logs and
// the check command.
package hostinfo

import (
	"context"
	"fmt"
	"time"

	gocpu "github.com/shirou/gopsutil/v4/cpu"
	gohost "github.com/shirou/gopsutil/v4/host"
	gomem "github.com/shirou/gopsutil/v4/mem"
)

// System call wrappers for testing
var (
	hostInfo      = gohost.InfoWithContext
	cpuCounts     = gocpu.CountsWithContext
	virtualMemory = gomem.VirtualMemoryWithContext
)

// Info is a static description of the host.
type Info struct {
	Hostname        string        `json:"hostname" yaml:"hostname"`
	OS              string        `json:"os" yaml:"os"`
	Platform        string        `json:"platform" yaml:"platform"`
	PlatformVersion string        `json:"platform_version" yaml:"platform_version"`
	KernelVersion   string        `json:"kernel_version" yaml:"kernel_version"`
	Architecture    string        `json:"architecture" yaml:"architecture"`
	Virtualization  string        `json:"virtualization,omitempty" yaml:"virtualization,omitempty"`
	Uptime          time.Duration `json:"uptime" yaml:"uptime"`
	LogicalCPUs     int           `json:"logical_cpus" yaml:"logical_cpus"`
	PhysicalCPUs    int           `json:"physical_cpus,omitempty" yaml:"physical_cpus,omitempty"`
	MemoryTotalKiB  uint64        `json:"memory_total_kib,omitempty" yaml:"memory_total_kib,omitempty"`
}

// Describe gathers the host description. Only the host lookup is required;
// CPU counts and memory total are best effort.
func Describe(ctx context.Context) (Info, error) {
	describeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	h, err := hostInfo(describeCtx)
	if err != nil {
		return Info{}, fmt.Errorf("host info: %w", err)
	}

	info := Info{
		Hostname:        h.Hostname,
		OS:              h.OS,
		Platform:        h.Platform,
		PlatformVersion: h.PlatformVersion,
		KernelVersion:   h.KernelVersion,
		Architecture:    h.KernelArch,
		Uptime:          time.Duration(h.Uptime) * time.Second,
	}
	if h.VirtualizationSystem != "" && h.VirtualizationRole == "guest" {
		info.Virtualization = h.VirtualizationSystem
	}

	if n, err := cpuCounts(describeCtx, true); err == nil {
		info.LogicalCPUs = n
	}
	if n, err := cpuCounts(describeCtx, false); err == nil {
		info.PhysicalCPUs = n
	}
	if vm, err := virtualMemory(describeCtx); err == nil && vm != nil {
		info.MemoryTotalKiB = vm.Total / 1024
	}

	return info, nil
}
