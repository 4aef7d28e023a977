package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-issue-metrics/core"
)

type stubIssueReader struct {
	issue core.Issue
	err   error
	calls int
}

func (r *stubIssueReader) GetByNumber(_ context.Context, number int) (core.Issue, error) {
	r.calls++
	if r.err != nil {
		return core.Issue{}, r.err
	}
	if r.issue.Number != number {
		return core.Issue{}, core.ErrIssueNotFound
	}
	return r.issue, nil
}

type stubEventReader struct {
	events []core.Event
	limit  int
}

func (r *stubEventReader) ListByIssue(_ context.Context, _ int, limit int) ([]core.Event, error) {
	r.limit = limit
	return r.events, nil
}

type stubDailyTotalReader struct {
	totals []core.DailyTotal
	err    error
}

func (r *stubDailyTotalReader) List(_ context.Context, _ time.Time, _ time.Time) ([]core.DailyTotal, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.totals, nil
}

func TestGetIssueQuery_ReturnsIssue(t *testing.T) {
	reader := &stubIssueReader{issue: core.Issue{Number: 42, Title: "Site broken on load", Open: true}}
	q := NewGetIssueQuery(reader)

	issue, err := q.Query(context.Background(), GetIssueMessage{Number: 42})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if issue.Title != "Site broken on load" {
		t.Fatalf("unexpected issue: %+v", issue)
	}

	if _, err := q.Query(context.Background(), GetIssueMessage{Number: 7}); !errors.Is(err, core.ErrIssueNotFound) {
		t.Fatalf("expected not found propagated, got %v", err)
	}
}

func TestIssueTimelineQuery_CombinesIssueAndEvents(t *testing.T) {
	issues := &stubIssueReader{issue: core.Issue{Number: 42, Title: "Site broken on load", Open: true}}
	events := &stubEventReader{events: []core.Event{
		{IssueNumber: 42, Actor: "alice", Action: "opened"},
		{IssueNumber: 42, Actor: "alice", Action: "labeled", Details: map[string]any{"label name": "bug"}},
	}}
	q := NewIssueTimelineQuery(issues, events)

	timeline, err := q.Query(context.Background(), IssueTimelineMessage{Number: 42, Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if timeline.Issue.Number != 42 {
		t.Fatalf("unexpected issue: %+v", timeline.Issue)
	}
	if len(timeline.Events) != 2 || timeline.Events[1].Action != "labeled" {
		t.Fatalf("unexpected events: %+v", timeline.Events)
	}
	if events.limit != 10 {
		t.Fatalf("expected limit forwarded, got %d", events.limit)
	}
}

func TestIssueTimelineQuery_MissingIssueSkipsEvents(t *testing.T) {
	issues := &stubIssueReader{err: core.ErrIssueNotFound}
	events := &stubEventReader{}
	q := NewIssueTimelineQuery(issues, events)

	if _, err := q.Query(context.Background(), IssueTimelineMessage{Number: 9}); !errors.Is(err, core.ErrIssueNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListDailyTotalsQuery_FillsMissingDaysWithZero(t *testing.T) {
	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	reader := &stubDailyTotalReader{totals: []core.DailyTotal{
		{Day: from, Count: 3},
		{Day: from.AddDate(0, 0, 2), Count: 1},
	}}
	q := NewListDailyTotalsQuery(reader)

	totals, err := q.Query(context.Background(), ListDailyTotalsMessage{From: from, To: to})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(totals) != 4 {
		t.Fatalf("expected 4 days in range, got %d", len(totals))
	}
	wantCounts := []int{3, 0, 1, 0}
	for i, total := range totals {
		if total.Count != wantCounts[i] {
			t.Fatalf("day %d: expected count %d, got %d", i, wantCounts[i], total.Count)
		}
		if !total.Day.Equal(from.AddDate(0, 0, i)) {
			t.Fatalf("day %d: expected %s, got %s", i, from.AddDate(0, 0, i), total.Day)
		}
	}
}

func TestListDailyTotalsQuery_RejectsInvertedRange(t *testing.T) {
	q := NewListDailyTotalsQuery(&stubDailyTotalReader{})
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	if _, err := q.Query(context.Background(), ListDailyTotalsMessage{From: day, To: day.AddDate(0, 0, -1)}); err == nil {
		t.Fatalf("expected validation error for inverted range")
	}
}

func TestDaySpan_InclusiveBounds(t *testing.T) {
	from := time.Date(2026, 8, 29, 15, 4, 0, 0, time.UTC)
	days := DaySpan(from, from)
	if len(days) != 1 {
		t.Fatalf("expected single day span, got %d", len(days))
	}
	if days[0] != time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("expected truncated day, got %s", days[0])
	}
}
