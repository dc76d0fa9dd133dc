// Command sample-data writes synthetic transaction and ticket CSVs for local runs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okian/opsboard/internal/sampledata"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := sampledata.DefaultConfig()
	var (
		out   string
		start string
	)

	cmd := &cobra.Command{
		Use:           "sample-data",
		Short:         "Generate synthetic dashboard datasets",
		Long:          `Writes enriched_data.csv and tickets_cleaned.csv with reproducible synthetic rows.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			t, err := time.Parse("2006-01-02", start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			cfg.Start = t

			ds, err := sampledata.Generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			txPath, tkPath, err := sampledata.WriteFiles(out, ds)
			if err != nil {
				return err
			}
			logger.Get().Info(cmd.Context(), "sample data written",
				logger.String("transactions", txPath),
				logger.String("tickets", tkPath))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", ".", "output directory")
	f.StringVar(&start, "start", cfg.Start.Format("2006-01-02"), "first transaction date (YYYY-MM-DD)")
	f.IntVar(&cfg.Transactions, "transactions", cfg.Transactions, "number of transactions")
	f.IntVar(&cfg.Tickets, "tickets", cfg.Tickets, "number of support tickets")
	f.IntVar(&cfg.Customers, "customers", cfg.Customers, "number of distinct customers")
	f.IntVar(&cfg.Days, "days", cfg.Days, "length of the date range in days")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.Float64Var(&cfg.RefundRate, "refund-rate", cfg.RefundRate, "share of refunded transactions")
	f.Float64Var(&cfg.OrphanTicketRate, "orphan-rate", cfg.OrphanTicketRate, "share of tickets from unknown customers")
	f.BoolVar(&cfg.PadCategories, "pad-categories", cfg.PadCategories, "pad some category values with spaces")

	return cmd
}
