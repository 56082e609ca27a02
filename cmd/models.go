package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect stored models",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			models, err := svc.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(models) == 0 {
				fmt.Fprintln(w, "No models found.")
				return nil
			}

			fmt.Fprintf(w, "%-36s  %-19s  %-6s  %-8s  %-8s  %s\n",
				"ID", "Created", "Trees", "Train", "Accuracy", "F1")
			fmt.Fprintln(w, strings.Repeat("\u2500", 96))
			for _, m := range models {
				fmt.Fprintf(w, "%-36s  %-19s  %-6d  %-8d  %-8.4f  %.4f\n",
					m.ID,
					m.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					m.NumTrees,
					m.TrainingSize,
					m.Report.Accuracy,
					m.Report.F1,
				)
			}
			return nil
		},
	}

	modelsCmd.AddCommand(listCmd)
	return modelsCmd
}
