package main

import (
	"fmt"
	"time"

	"github.com/goliatone/go-issue-metrics/jobs"
	"github.com/spf13/cobra"
)

func newRollupCommand(flags *rootFlags) *cobra.Command {
	var fromArg string
	var toArg string

	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Recount daily opened-issue totals for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDay(fromArg)
			if err != nil {
				return fmt.Errorf("parse --from: %w", err)
			}
			to := time.Now().UTC()
			if toArg != "" {
				if to, err = parseDay(toArg); err != nil {
					return fmt.Errorf("parse --to: %w", err)
				}
			}

			cfg, err := resolveConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			logger := newLogger(flags.logLevel, cfg.ServiceName)

			client, provider, cleanup, err := openStores(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := applyMigrations(cmd.Context(), client, flags); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}

			service := jobs.NewDailyTotalsService(provider).WithLogger(logger)
			totals, err := service.RefreshDailyTotals(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			for _, total := range totals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", total.Day.Format("2006-01-02"), total.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromArg, "from", "", "first day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toArg, "to", "", "last day of the range (YYYY-MM-DD), defaults to today")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func parseDay(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
