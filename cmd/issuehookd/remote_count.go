package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-issue-metrics/transport"
	"github.com/spf13/cobra"
)

func newRemoteCountCommand(flags *rootFlags) *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:   "remote-count",
		Short: "Fetch the live open-issue count from the tracker API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if strings.Count(repo, "/") != 1 {
				return fmt.Errorf("--repo must look like owner/name, got %q", repo)
			}

			repoURL := strings.TrimRight(cfg.Tracker.APIBaseURL, "/") + "/repos/" + repo
			client, err := transport.NewTrackerClient(transport.NewRESTAdapter(nil), repoURL)
			if err != nil {
				return err
			}
			client = client.WithUserAgent(cfg.Tracker.UserAgent)

			count, err := client.OpenIssueCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "tracker repository as owner/name")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}
