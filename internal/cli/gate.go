package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/materialgate/gatepass/internal/db"
)

func newGateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate [request-id]",
		Short: "Check a scanned request id at the gate",
		Long:  "With no argument, opens the interactive guard screen for repeated scans. With a request id, prints a one-shot PASS/BLOCK verdict (usable from scripts).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svcs, err := openServices(ctx)
			if err != nil {
				return err
			}
			defer svcs.Close()

			if len(args) == 1 {
				status, err := svcs.svc.GateCheck(ctx, args[0])
				if errors.Is(err, db.ErrRequestNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "BLOCK  no such request: %s\n", args[0])
					return nil
				}
				if err != nil {
					return err
				}
				verdict := "BLOCK"
				if status.Pass {
					verdict = "PASS"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", verdict, status.Status, status.Summary)
				return nil
			}

			if !hasTTY() {
				return fmt.Errorf("interactive gate screen needs a terminal; pass a request id instead")
			}
			program := tea.NewProgram(newGateModel(svcs.svc), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
