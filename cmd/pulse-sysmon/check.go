package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/rcourtman/pulse-sysmon/internal/config"
	"github.com/rcourtman/pulse-sysmon/internal/hostinfo"
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
	"github.com/rcourtman/pulse-sysmon/pkg/devfilters"
)

var errCheckFailed = errors.New("one or more sources could not be read")

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Read every source once and show how devices are classified",
		Long: `Reads each counter source once, reports whether it parses, and lists the
network interfaces and block devices that would be counted or skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if info, err := hostinfo.Describe(cmd.Context()); err == nil {
				fmt.Fprintf(out, "Host: %s (%s %s, kernel %s, %d CPUs)\n\n",
					info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion, info.LogicalCPUs)
			}

			if failed := runChecks(out, cfg); failed > 0 {
				return fmt.Errorf("%w (%d failed)", errCheckFailed, failed)
			}
			return nil
		},
	}
}

// runChecks reads each source of cfg once and reports the result. It returns
// the number of sources that failed.
func runChecks(out io.Writer, cfg config.Config) int {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	failed := 0
	report := func(path string, err error) bool {
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s\tFAIL\t%v\n", path, err)
			return false
		}
		fmt.Fprintf(w, "%s\tOK\t\n", path)
		return true
	}

	cpuReader := sensors.NewCPUStatReader(cfg.ProcRoot)
	if stat, err := readChecked[sensors.CPUStat](cpuReader.Path(), cpuReader); report(cpuReader.Path(), err) {
		fmt.Fprintf(w, "  cpu\tidle=%d iowait=%d total=%d\t\n", stat.Idle, stat.IOWait, stat.Total)
	}

	memReader := sensors.NewMemInfoReader(cfg.ProcRoot)
	if info, err := readChecked[sensors.MemInfo](memReader.Path(), memReader); report(memReader.Path(), err) {
		fmt.Fprintf(w, "  memory\ttotal=%dKiB available=%dKiB\t\n", info.TotalKiB, info.AvailableKiB)
	}

	netReader := sensors.NewNetDevReader(cfg.ProcRoot)
	if dev, err := readChecked[sensors.NetDev](netReader.Path(), netReader); report(netReader.Path(), err) {
		classifier := devfilters.SysfsInterfaces{Root: cfg.SysRoot}
		for _, d := range dev.Devices {
			kind := "virtual (skipped)"
			if classifier.IsPhysical(d.Name) {
				kind = "physical"
			}
			fmt.Fprintf(w, "  %s\t%s\trx=%d tx=%d\n", d.Name, kind, d.RxBytes, d.TxBytes)
		}
	}

	diskReader := sensors.NewDiskStatsReader(cfg.ProcRoot, cfg.Disk.Counter)
	if stats, err := readChecked[sensors.DiskStats](diskReader.Path(), diskReader); report(diskReader.Path(), err) {
		for _, d := range stats.Devices {
			kind := "logical"
			if reason, skip := devfilters.DiskSkipReason(d.Name); skip {
				kind = fmt.Sprintf("skipped (%s)", reason)
			}
			fmt.Fprintf(w, "  %s\t%s\t%s reads=%d writes=%d\n", d.Name, kind, diskReader.Counter(), d.Reads, d.Writes)
		}
	}

	return failed
}

// readChecked probes read permission before reading so an unreadable source
// is reported as such rather than as a generic open failure.
func readChecked[T any](path string, reader sensors.Reader[T]) (T, error) {
	if err := unix.Access(path, unix.R_OK); err != nil {
		var zero T
		return zero, fmt.Errorf("not readable: %w", err)
	}
	return reader.Read()
}
