// Package cmd implements the loan-eligibility command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"loan-eligibility/config"
	"loan-eligibility/logging"
)

// app carries the state shared by every subcommand once the root command
// has loaded the configuration.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "loan-eligibility",
		Short:         "Loan eligibility rules and classifier",
		Long:          "Generates synthetic applicants, trains a random forest on rule-engine labels and serves eligibility predictions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.Log.Level = lvl
			}
			cfg.Log.Output = cmd.ErrOrStderr()
			logging.Init(cfg.Log)
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides "+config.ConfigPathEnvVar+" env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newGenerateCmd(a))
	rootCmd.AddCommand(newTrainCmd(a))
	rootCmd.AddCommand(newPredictCmd(a))
	rootCmd.AddCommand(newEvaluateCmd(a))
	rootCmd.AddCommand(newCriteriaCmd(a))
	rootCmd.AddCommand(newModelsCmd(a))
	rootCmd.AddCommand(newPredictionsCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	return rootCmd
}

func Execute() error {
	return newRootCmd().Execute()
}

// ExitOnError runs the CLI and exits non-zero on failure.
func ExitOnError() {
	if err := Execute(); err != nil {
		logging.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
