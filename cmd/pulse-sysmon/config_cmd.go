package main

import (
	"github.com/spf13/cobra"

	"github.com/rcourtman/pulse-sysmon/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect pulse-sysmon configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after defaults, the config file, .env, environment
variables and command-line flags have been applied and floors enforced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(opts)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	configCmd.AddCommand(showCmd)
	return configCmd
}
