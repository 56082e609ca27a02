package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"loan-eligibility/dataset"
	"loan-eligibility/domain"
)

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model and save it to the model store",
		Long:  "Trains on a labelled CSV/JSON file, or on freshly generated data when no input is given, then prints the evaluation report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			n, _ := cmd.Flags().GetInt("count")
			if !cmd.Flags().Changed("count") {
				n = a.cfg.Generator.Count
			}

			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			var records []domain.LabelledApplicant
			if input != "" {
				rows, err := dataset.ReadFile(input)
				if err != nil {
					return fmt.Errorf("read %s: %w", input, err)
				}
				if records, err = dataset.Labelled(rows); err != nil {
					return fmt.Errorf("parse %s: %w", input, err)
				}
			} else if records, err = svc.Generate(a.generatorConfig(cmd), n); err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			res, err := svc.Train(cmd.Context(), records)
			if err != nil {
				return err
			}
			if err := svc.SaveModel(cmd.Context(), res.Bundle); err != nil {
				return fmt.Errorf("save model: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "model     %s\n", res.Bundle.Metadata.ID)
			fmt.Fprint(w, res.Report.String())
			return nil
		},
	}
	cmd.Flags().StringP("input", "i", "", "Labelled dataset, .csv or .json")
	cmd.Flags().IntP("count", "n", 0, "Applicants to generate without --input (default from config)")
	cmd.Flags().Int64("seed", 0, "Generator seed without --input (default from config)")
	return cmd
}
