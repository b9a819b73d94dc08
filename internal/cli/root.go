// Package cli implements the gatepass command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/materialgate/gatepass/internal/config"
	"github.com/materialgate/gatepass/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// cfg is loaded once in the root PersistentPreRunE and read by every
	// subcommand.
	cfg *config.Config
)

// Execute runs the gatepass CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gatepass",
		Short:         "Material gate-pass workflow for construction sites",
		Long:          "gatepass runs the material in/out request workflow: submission, approval, gate check, execution records and the generated document pack.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			if cfgFile != "" {
				loader.SetConfigFile(cfgFile)
			}
			loaded, err := loader.Load()
			if err != nil {
				return err
			}
			cfg = loaded

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(),
		newLedgerCmd(),
		newExportCmd(),
		newGateCmd(),
		newHashPassCmd(),
	)
	return cmd
}
