package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/models"
)

func newLedgerCmd() *cobra.Command {
	var (
		status string
		date   string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print the request ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svcs, err := openServices(ctx)
			if err != nil {
				return err
			}
			defer svcs.Close()

			requests, err := svcs.svc.List(ctx, db.Query{
				Status:   models.RequestStatus(status),
				WorkDate: date,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(requests))
			for _, r := range requests {
				rows = append(rows, []string{
					r.ID,
					styledStatus(r.Status),
					string(r.Direction),
					r.Company,
					r.Material,
					r.Vehicle,
					r.WorkDate + " " + r.WorkTime,
					string(r.Risk),
				})
			}
			headers := []string{"ID", "STATUS", "DIR", "COMPANY", "MATERIAL", "VEHICLE", "SCHEDULE", "RISK"}
			if err := writeTable(cmd.OutOrStdout(), headers, rows); err != nil {
				return err
			}

			if date != "" {
				stats, err := svcs.svc.Stats(ctx, date)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"\n%s: %d requests, %d pending, %d approved, %d executed, %d high-risk\n",
					date, stats.DateRequests, stats.Pending, stats.Approved, stats.Executed, stats.HighRisk)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, APPROVED, REJECTED, EXECUTING, EXECUTED)")
	cmd.Flags().StringVar(&date, "date", "", "Filter by work date (YYYY-MM-DD); also prints the day's KPI line")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows (default 200)")
	return cmd
}
