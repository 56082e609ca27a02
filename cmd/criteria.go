package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCriteriaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "criteria",
		Short: "Show the requirements for every loan type",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := a.cfg.Policy()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			sep := strings.Repeat("\u2500", 40)
			for _, req := range policy.Requirements() {
				fmt.Fprintf(w, "%s Loan\n%s\n", req.LoanType, sep)
				section := func(title string, items []string) {
					fmt.Fprintf(w, "%s:\n", title)
					for _, it := range items {
						fmt.Fprintf(w, "  - %s\n", it)
					}
				}
				section("Minimum", req.Minimum)
				section("Preferred", req.Preferred)
				section("Automatic approval", req.AutomaticApproval)
				section("Automatic rejection", req.AutomaticRejection)
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}
