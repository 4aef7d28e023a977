package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-issue-metrics/core"
)

var (
	_ gocmd.Querier[GetIssueMessage, core.Issue]               = (*GetIssueQuery)(nil)
	_ gocmd.Querier[IssueTimelineMessage, IssueTimeline]       = (*IssueTimelineQuery)(nil)
	_ gocmd.Querier[ListDailyTotalsMessage, []core.DailyTotal] = (*ListDailyTotalsQuery)(nil)
)
