package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/export"
	"github.com/materialgate/gatepass/internal/models"
)

func newExportCmd() *cobra.Command {
	var (
		status string
		date   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the request ledger as an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svcs, err := openServices(ctx)
			if err != nil {
				return err
			}
			defer svcs.Close()

			buf, filename, err := export.Ledger(ctx, db.NewRequestRepository(svcs.db), db.Query{
				Status:   models.RequestStatus(status),
				WorkDate: date,
			})
			if err != nil {
				return err
			}

			if output == "" {
				output = filename
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&date, "date", "", "Filter by work date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default gatepass_ledger_<date>.xlsx)")
	return cmd
}
