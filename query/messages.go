package query

import (
	"time"
)

const (
	TypeGetIssue        = "metrics.query.issue.get"
	TypeIssueTimeline   = "metrics.query.issue.timeline"
	TypeListDailyTotals = "metrics.query.daily_totals.list"
)

type GetIssueMessage struct {
	Number int
}

func (GetIssueMessage) Type() string { return TypeGetIssue }

func (m GetIssueMessage) Validate() error {
	if m.Number <= 0 {
		return queryValidationError("number", "issue number must be positive")
	}
	return nil
}

type IssueTimelineMessage struct {
	Number int
	Limit  int
}

func (IssueTimelineMessage) Type() string { return TypeIssueTimeline }

func (m IssueTimelineMessage) Validate() error {
	if m.Number <= 0 {
		return queryValidationError("number", "issue number must be positive")
	}
	if m.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	return nil
}

type ListDailyTotalsMessage struct {
	From time.Time
	To   time.Time
}

func (ListDailyTotalsMessage) Type() string { return TypeListDailyTotals }

func (m ListDailyTotalsMessage) Validate() error {
	if m.From.IsZero() {
		return queryValidationError("from", "start day is required")
	}
	if m.To.IsZero() {
		return queryValidationError("to", "end day is required")
	}
	if m.To.Before(m.From) {
		return queryValidationError("to", "end day must not precede start day")
	}
	return nil
}
