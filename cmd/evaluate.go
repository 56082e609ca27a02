package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loan-eligibility/dataset"
	"loan-eligibility/rules"
	"loan-eligibility/validation"
)

func newEvaluateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the rule engine on one applicant",
		RunE: func(cmd *cobra.Command, args []string) error {
			income, _ := cmd.Flags().GetString("income")
			credit, _ := cmd.Flags().GetString("credit-score")
			emp, _ := cmd.Flags().GetString("employment")
			loan, _ := cmd.Flags().GetString("loan-type")

			applicant, err := dataset.ParseApplicant(dataset.Row{
				dataset.ColIncome:      income,
				dataset.ColCreditScore: credit,
				dataset.ColEmployment:  emp,
				dataset.ColLoanType:    loan,
			})
			if err != nil {
				return err
			}
			if err := validation.ValidateApplicant(applicant); err != nil {
				return err
			}

			policy, err := a.cfg.Policy()
			if err != nil {
				return err
			}
			d, err := policy.Evaluate(applicant)
			if err != nil {
				return err
			}
			printDecision(cmd, d)
			return nil
		},
	}
	cmd.Flags().String("income", "", "Annual income")
	cmd.Flags().String("credit-score", "", "Credit score (300-850)")
	cmd.Flags().String("employment", "Employed", "Employed, Self-employed or Unemployed")
	cmd.Flags().String("loan-type", "", "Home, Education or Car")
	_ = cmd.MarkFlagRequired("income")
	_ = cmd.MarkFlagRequired("credit-score")
	_ = cmd.MarkFlagRequired("loan-type")
	return cmd
}

func printDecision(cmd *cobra.Command, d rules.Decision) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Decision:  %s\n", d.Label)
	fmt.Fprintf(w, "Rule:      %s\n", d.Rule)
	if d.Score != nil {
		fmt.Fprintf(w, "Score:     %.2f\n", *d.Score)
	}
	fmt.Fprintf(w, "Reason:    %s\n", strings.TrimSpace(d.Reason))
}
