package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPredictionsCmd(a *app) *cobra.Command {
	predictionsCmd := &cobra.Command{
		Use:   "predictions",
		Short: "Inspect the prediction audit log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent predictions, newest first",
		Long:  "Lists recorded predictions. Only the sqlite store driver keeps them across runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := svc.ListPredictions(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list predictions: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(w, "No predictions found.")
				return nil
			}

			fmt.Fprintf(w, "%-19s  %-10s  %-6s  %-13s  %-9s  %-13s  %-5s  %s\n",
				"Created", "Income", "Credit", "Employment", "Loan", "Label", "Conf", "Rule")
			fmt.Fprintln(w, strings.Repeat("\u2500", 96))
			for _, r := range records {
				rule := r.Prediction.Rule
				if rule == "" {
					rule = "model"
				}
				if r.Prediction.Overridden {
					rule += " (override)"
				}
				fmt.Fprintf(w, "%-19s  %-10.0f  %-6d  %-13s  %-9s  %-13s  %-5.2f  %s\n",
					r.Prediction.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Applicant.Income,
					r.Applicant.CreditScore,
					r.Applicant.EmploymentStatus,
					r.Applicant.LoanType,
					r.Prediction.Label,
					r.Prediction.Confidence,
					rule,
				)
			}
			return nil
		},
	}
	listCmd.Flags().Int("limit", 20, "Maximum number of predictions (0 for all)")

	predictionsCmd.AddCommand(listCmd)
	return predictionsCmd
}
