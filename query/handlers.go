package query

import (
	"context"
	"time"

	"github.com/goliatone/go-issue-metrics/core"
)

type IssueReader interface {
	GetByNumber(ctx context.Context, number int) (core.Issue, error)
}

type EventReader interface {
	ListByIssue(ctx context.Context, number int, limit int) ([]core.Event, error)
}

type DailyTotalReader interface {
	List(ctx context.Context, from time.Time, to time.Time) ([]core.DailyTotal, error)
}

type GetIssueQuery struct {
	issues IssueReader
}

func NewGetIssueQuery(issues IssueReader) *GetIssueQuery {
	return &GetIssueQuery{issues: issues}
}

func (q *GetIssueQuery) Query(ctx context.Context, msg GetIssueMessage) (core.Issue, error) {
	if q == nil || q.issues == nil {
		return core.Issue{}, queryDependencyError("query: issue reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Issue{}, err
	}
	return q.issues.GetByNumber(ctx, msg.Number)
}

// IssueTimeline is an issue's current state plus its event history in
// received order.
type IssueTimeline struct {
	Issue  core.Issue
	Events []core.Event
}

type IssueTimelineQuery struct {
	issues IssueReader
	events EventReader
}

func NewIssueTimelineQuery(issues IssueReader, events EventReader) *IssueTimelineQuery {
	return &IssueTimelineQuery{issues: issues, events: events}
}

func (q *IssueTimelineQuery) Query(ctx context.Context, msg IssueTimelineMessage) (IssueTimeline, error) {
	if q == nil || q.issues == nil || q.events == nil {
		return IssueTimeline{}, queryDependencyError("query: issue and event readers are required")
	}
	if err := msg.Validate(); err != nil {
		return IssueTimeline{}, err
	}
	issue, err := q.issues.GetByNumber(ctx, msg.Number)
	if err != nil {
		return IssueTimeline{}, err
	}
	events, err := q.events.ListByIssue(ctx, msg.Number, msg.Limit)
	if err != nil {
		return IssueTimeline{}, err
	}
	return IssueTimeline{Issue: issue, Events: events}, nil
}

type ListDailyTotalsQuery struct {
	totals DailyTotalReader
}

func NewListDailyTotalsQuery(totals DailyTotalReader) *ListDailyTotalsQuery {
	return &ListDailyTotalsQuery{totals: totals}
}

// Query returns one entry per calendar day in the requested range. Days with
// no stored rollup come back with a zero count so chart consumers never see
// gaps.
func (q *ListDailyTotalsQuery) Query(ctx context.Context, msg ListDailyTotalsMessage) ([]core.DailyTotal, error) {
	if q == nil || q.totals == nil {
		return nil, queryDependencyError("query: daily total reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	stored, err := q.totals.List(ctx, msg.From, msg.To)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]core.DailyTotal, len(stored))
	for _, total := range stored {
		byDay[total.Day.UTC().Format("2006-01-02")] = total
	}
	days := DaySpan(msg.From, msg.To)
	out := make([]core.DailyTotal, 0, len(days))
	for _, day := range days {
		if total, ok := byDay[day.Format("2006-01-02")]; ok {
			out = append(out, total)
			continue
		}
		out = append(out, core.DailyTotal{Day: day, Count: 0})
	}
	return out, nil
}

// DaySpan lists every UTC calendar day from the day of from through the day
// of to, inclusive.
func DaySpan(from time.Time, to time.Time) []time.Time {
	start := from.UTC().Truncate(24 * time.Hour)
	end := to.UTC().Truncate(24 * time.Hour)
	var days []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}
