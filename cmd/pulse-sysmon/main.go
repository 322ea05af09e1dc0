package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcourtman/pulse-sysmon/internal/config"
	"github.com/rcourtman/pulse-sysmon/internal/logging"
	"github.com/rcourtman/pulse-sysmon/internal/utils"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const defaultEventBuffer = 16

type options struct {
	configPath  string
	logLevel    string
	logFormat   string
	logFile     string
	format      string
	metricsAddr string
	eventBuffer int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "pulse-sysmon",
		Short: "Pulse system monitor - rolling CPU, memory, network and disk usage",
		Long: `Samples kernel counters for CPU, memory, network and disk on independent
timers and prints smoothed usage events. Configuration changes restart sampling.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOptions(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSysmon(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", utils.GetenvTrim(config.EnvPrefix+"CONFIG"), "Path to configuration file (YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: auto, console, json (overrides config)")
	flags.StringVar(&opts.logFile, "log-file", "", "Also append logs to this file (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Sample and print usage events until interrupted (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSysmon(cmd, opts)
		},
	}
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&opts.format, "format", "text", "Event output format: text or json")
		c.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve engine metrics on this address (e.g. 127.0.0.1:9137)")
		c.Flags().IntVar(&opts.eventBuffer, "buffer", defaultEventBuffer, "Events buffered before new ones are dropped")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pulse-sysmon %s\n", utils.NormalizeVersion(Version))
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}

// validateOptions rejects flag values that would otherwise be silently
// replaced with defaults.
func validateOptions(opts *options) error {
	if opts.logLevel != "" && !logging.ValidLevel(opts.logLevel) {
		return fmt.Errorf("invalid --log-level %q: expected trace, debug, info, warn, error or disabled", opts.logLevel)
	}
	return nil
}

// loadSettings loads the configuration and applies command-line overrides.
func loadSettings(opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	return applyOverrides(cfg, opts), nil
}

// applyOverrides layers the command-line flags over a loaded configuration.
func applyOverrides(cfg config.Config, opts *options) config.Config {
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddress = opts.metricsAddr
	}
	return cfg
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
