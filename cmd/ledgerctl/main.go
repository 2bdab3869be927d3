/*
main.go - ledgerctl, the operations CLI

PURPOSE:
  Runs the maintenance operations against the ledger database directly,
  without going through the HTTP API. Intended for operators fixing data
  out of band: timezone boundary repair and totals reconciliation.

USAGE:
  ledgerctl repair-bounds --db ledger.db --business <id>
  ledgerctl reconcile     --db ledger.db --business <id> [--repair]

SEE ALSO:
  - ledger/repair.go: Repair and reconciliation implementations
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
	"github.com/Jonnhyortega/controlia-software-sub001/logger"
	"github.com/Jonnhyortega/controlia-software-sub001/store/sqlite"
)

var (
	dbPath     string
	businessID string
	logLevel   string
)

// cliActor is the identity recorded for operations run from this tool.
// Repairs are admin-gated, so it carries the admin role.
var cliActor = ledger.Actor{ID: "ledgerctl", Role: ledger.RoleAdmin}

func newService() (*ledger.Service, func(), error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	log := logger.New(logLevel)
	return ledger.NewService(store, log), func() { store.Close() }, nil
}

func main() {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Maintenance operations for the cash ledger database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "ledger.db", "SQLite database path")
	root.PersistentFlags().StringVar(&businessID, "business", "", "Business ID to operate on")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace|debug|info|warn|error)")

	repairBounds := &cobra.Command{
		Use:   "repair-bounds",
		Short: "Reinterpret day boundaries stored as UTC midnight into the business timezone",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if businessID == "" {
				return fmt.Errorf("--business is required")
			}
			service, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := service.RepairDayBounds(cmd.Context(), ledger.BusinessID(businessID), cliActor)
			if err != nil {
				return err
			}
			fmt.Printf("scanned %d days, repaired %d\n", result.Scanned, result.Repaired)
			return nil
		},
	}

	var repair bool
	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute day totals from line items and report drift",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if businessID == "" {
				return fmt.Errorf("--business is required")
			}
			service, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := service.ReconcileTotals(cmd.Context(), ledger.BusinessID(businessID), repair, cliActor)
			if result == nil {
				return err
			}
			for _, d := range result.Diverged {
				fmt.Printf("day %s: stored=%s computed=%s\n", d.DayID, d.Stored, d.Computed)
			}
			fmt.Printf("scanned %d days, %d diverged, repaired %d\n",
				result.Scanned, len(result.Diverged), result.Repaired)
			return err
		},
	}
	reconcile.Flags().BoolVar(&repair, "repair", false, "Write recomputed totals back")

	root.AddCommand(repairBounds, reconcile)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
