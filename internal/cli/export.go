package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopsmart/backend/internal/usecase"
)

func newExportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Ask the job service to export its latest results to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			result, err := usecase.NewExportRequester(a.jobs, a.log).Export(cmd.Context())
			if err != nil {
				return err
			}

			if format == formatTable {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", result.Count, result.Filename)
				return err
			}
			return render(cmd.OutOrStdout(), format, result)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format (table, json, yaml)")

	return cmd
}
