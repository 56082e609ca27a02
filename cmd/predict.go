package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"loan-eligibility/dataset"
)

const predictLong = `Predicts eligibility for every applicant in a CSV/JSON file and prints the
results as JSON.

Predictions are kept in the audit log only with store.driver=sqlite; the file
driver holds the log in memory, so it is gone when the command exits.`

func newPredictCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <file>",
		Short: "Predict eligibility for every applicant in a CSV/JSON file",
		Long:  predictLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("model")

			rows, err := dataset.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			applicants, err := dataset.Applicants(rows)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			b, err := svc.LoadModel(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("load model: %w", err)
			}
			preds, err := svc.Predict(cmd.Context(), b, applicants)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(preds)
		},
	}
	cmd.Flags().StringP("model", "m", "", "Model ID (default latest)")
	return cmd
}
