package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"loan-eligibility/dataset"
	"loan-eligibility/generator"
	"loan-eligibility/logging"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a labelled synthetic dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("count")
			out, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")
			if !cmd.Flags().Changed("count") {
				n = a.cfg.Generator.Count
			}

			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := svc.Generate(a.generatorConfig(cmd), n)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			if out == "" {
				return dataset.Write(cmd.OutOrStdout(), dataset.Format(format), records)
			}
			if err := dataset.WriteFile(out, records); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			logging.Info().Int("records", len(records)).Str("path", out).Msg("dataset generated")
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 0, "Number of applicants (default from config)")
	cmd.Flags().StringP("output", "o", "", "Output file, .csv or .json (default stdout)")
	cmd.Flags().String("format", string(dataset.CSV), "Format when writing to stdout (csv or json)")
	cmd.Flags().Int64("seed", 0, "Random seed (default from config)")
	return cmd
}

// generatorConfig applies the configured seed, or --seed when given.
func (a *app) generatorConfig(cmd *cobra.Command) generator.Config {
	gc := generator.DefaultConfig()
	gc.Seed = a.cfg.Generator.Seed
	if cmd.Flags().Lookup("seed") != nil && cmd.Flags().Changed("seed") {
		gc.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	return gc
}
