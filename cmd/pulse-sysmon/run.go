package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/rcourtman/pulse-sysmon/internal/config"
	"github.com/rcourtman/pulse-sysmon/internal/hostinfo"
	"github.com/rcourtman/pulse-sysmon/internal/logging"
	"github.com/rcourtman/pulse-sysmon/internal/metrics"
	"github.com/rcourtman/pulse-sysmon/internal/scheduler"
	"github.com/rcourtman/pulse-sysmon/internal/utils"
)

func runSysmon(cmd *cobra.Command, opts *options) error {
	printer, err := newEventPrinter(cmd.OutOrStdout(), opts.format)
	if err != nil {
		return err
	}

	base, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := applyOverrides(base, opts)

	runID := utils.GenerateID("run")
	logger := logging.Init(logging.Config{
		Format:    cfg.Log.Format,
		Level:     cfg.Log.Level,
		Component: "pulse-sysmon",
		FilePath:  cfg.Log.File,
		RunID:     runID,
	})
	defer logging.Shutdown()
	metrics.RecordBuildInfo(Version, GitCommit)

	ctx, cancel := signal.NotifyContext(cmd.Context(), unix.SIGINT, unix.SIGTERM)
	defer cancel()

	logHostInfo(ctx, logger)
	logger.Info().
		Str("version", Version).
		Str("config", opts.configPath).
		Str("proc_root", cfg.ProcRoot).
		Strs("families", familyNames(cfg)).
		Msg("Starting pulse-sysmon")

	g, ctx := errgroup.WithContext(ctx)

	buffer := opts.eventBuffer
	if buffer < 0 {
		buffer = 0
	}
	events := make(chan scheduler.Event, buffer)
	updates := make(chan config.Config, 1)

	supervisor := scheduler.NewSupervisor(ctx, events, scheduler.ProcSources, logger)
	watcher := config.NewWatcher(opts.configPath, base, func(next config.Config) {
		publishLatest(updates, applyOverrides(next, opts))
	}, logger)

	g.Go(func() error {
		return supervisor.Run(ctx, cfg, updates)
	})
	g.Go(func() error {
		return watcher.Run(ctx)
	})
	g.Go(func() error {
		return reloadOnHangup(ctx, watcher, logger)
	})
	g.Go(func() error {
		return printer.Run(ctx, events, supervisor.Generation)
	})
	if cfg.MetricsAddress != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.MetricsAddress, func() status {
				return status{RunID: runID, Version: Version, Generation: supervisor.Generation()}
			})
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("pulse-sysmon terminated with error: %w", err)
	}

	logger.Info().Msg("pulse-sysmon stopped")
	return nil
}

// publishLatest replaces any pending configuration with cfg so the supervisor
// only ever restarts into the newest one.
func publishLatest(ch chan config.Config, cfg config.Config) {
	for {
		select {
		case ch <- cfg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func reloadOnHangup(ctx context.Context, watcher *config.Watcher, logger zerolog.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, unix.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			logger.Info().Msg("Received SIGHUP, reloading configuration")
			if !watcher.Reload() {
				logger.Info().Msg("Configuration unchanged, sampling continues")
			}
		}
	}
}

func logHostInfo(ctx context.Context, logger zerolog.Logger) {
	info, err := hostinfo.Describe(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Unable to describe host")
		return
	}
	logger.Info().
		Str("hostname", info.Hostname).
		Str("platform", info.Platform).
		Str("kernel", info.KernelVersion).
		Int("logical_cpus", info.LogicalCPUs).
		Str("virtualization", info.Virtualization).
		Msg("Host detected")
}

func familyNames(cfg config.Config) []string {
	var names []string
	for _, f := range cfg.EnabledFamilies() {
		names = append(names, string(f))
	}
	return names
}
