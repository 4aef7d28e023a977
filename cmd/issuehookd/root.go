package main

import (
	"github.com/spf13/cobra"
)

// rootFlags carries the values shared by every subcommand. Environment
// variables fill the same settings; flags win when both are set.
type rootFlags struct {
	serviceName     string
	webhookSecret   string
	categoryHeader  string
	signatureHeader string
	trackerBaseURL  string
	trackerAgent    string

	dbDriver string
	dbDSN    string
	dbDebug  bool

	logLevel string
}

func newRootCommand(version string) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "issuehookd",
		Short: "Issue tracker webhook ingestion and metrics server",
		Long: `issuehookd receives issue tracker webhook notifications, verifies their
signatures, and reconciles issue, label, and milestone state into a SQL store.
Every applied notification is appended to an event log, and daily opened-issue
totals can be rolled up for reporting.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.serviceName, "service-name", "", "service name used in logs and telemetry")
	pf.StringVar(&flags.webhookSecret, "webhook-secret", "", "shared secret for webhook signature verification")
	pf.StringVar(&flags.categoryHeader, "category-header", "", "header carrying the event category")
	pf.StringVar(&flags.signatureHeader, "signature-header", "", "header carrying the scheme-prefixed digest")
	pf.StringVar(&flags.trackerBaseURL, "tracker-base-url", "", "tracker API base URL")
	pf.StringVar(&flags.trackerAgent, "tracker-user-agent", "", "User-Agent for outbound tracker calls")
	pf.StringVar(&flags.dbDriver, "db-driver", "", "database driver: postgres or sqlite")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "database connection string")
	pf.BoolVar(&flags.dbDebug, "db-debug", false, "log SQL statements")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCommand(flags),
		newMigrateCommand(flags),
		newRollupCommand(flags),
		newRemoteCountCommand(flags),
	)

	return root
}
