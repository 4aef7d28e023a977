// Package memory holds an in-process implementation of the persistence
// gateway. It backs the dispatcher and query tests and mirrors the SQL
// store's semantics, including unit-of-work rollback.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-issue-metrics/core"
)

type state struct {
	issues     map[int]core.Issue
	labels     map[string]core.Label
	milestones map[string]core.Milestone
	events     []core.Event
	totals     map[string]core.DailyTotal
	nextEvent  int
	nextTotal  int
}

func newState() *state {
	return &state{
		issues:     map[int]core.Issue{},
		labels:     map[string]core.Label{},
		milestones: map[string]core.Milestone{},
		totals:     map[string]core.DailyTotal{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for number, issue := range s.issues {
		copied := issue
		copied.Labels = append([]string(nil), issue.Labels...)
		if issue.Milestone != nil {
			title := *issue.Milestone
			copied.Milestone = &title
		}
		out.issues[number] = copied
	}
	for name, label := range s.labels {
		out.labels[name] = label
	}
	for title, milestone := range s.milestones {
		out.milestones[title] = milestone
	}
	out.events = append([]core.Event(nil), s.events...)
	for day, total := range s.totals {
		out.totals[day] = total
	}
	out.nextEvent = s.nextEvent
	out.nextTotal = s.nextTotal
	return out
}

// Store is an in-memory unit of work. Within snapshots the state up front and
// restores it when the wrapped function fails, matching the SQL store's
// transaction rollback.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

var _ core.UnitOfWork = (*Store)(nil)

func (s *Store) Issues() core.IssueStore           { return issueStore{s} }
func (s *Store) Labels() core.LabelStore           { return labelStore{s} }
func (s *Store) Milestones() core.MilestoneStore   { return milestoneStore{s} }
func (s *Store) Events() core.EventStore           { return eventStore{s} }
func (s *Store) DailyTotals() core.DailyTotalStore { return dailyTotalStore{s} }

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, stores core.Stores) error) error {
	if s == nil {
		return fmt.Errorf("memory: store is nil")
	}
	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

type issueStore struct{ s *Store }

func (st issueStore) GetByNumber(_ context.Context, number int) (core.Issue, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	issue, ok := st.s.state.issues[number]
	if !ok {
		return core.Issue{}, fmt.Errorf("memory: issue %d: %w", number, core.ErrIssueNotFound)
	}
	return cloneIssue(issue), nil
}

func (st issueStore) Create(_ context.Context, issue core.Issue) (core.Issue, error) {
	if err := issue.Validate(); err != nil {
		return core.Issue{}, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if _, exists := st.s.state.issues[issue.Number]; exists {
		return core.Issue{}, fmt.Errorf("memory: issue %d: %w", issue.Number, core.ErrDuplicateName)
	}
	st.s.state.issues[issue.Number] = cloneIssue(issue)
	return issue, nil
}

func (st issueStore) Update(_ context.Context, issue core.Issue) (core.Issue, error) {
	if err := issue.Validate(); err != nil {
		return core.Issue{}, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if _, exists := st.s.state.issues[issue.Number]; !exists {
		return core.Issue{}, fmt.Errorf("memory: issue %d: %w", issue.Number, core.ErrIssueNotFound)
	}
	st.s.state.issues[issue.Number] = cloneIssue(issue)
	return issue, nil
}

func (st issueStore) AddLabel(_ context.Context, number int, label string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	issue, ok := st.s.state.issues[number]
	if !ok {
		return fmt.Errorf("memory: issue %d: %w", number, core.ErrIssueNotFound)
	}
	if !issue.HasLabel(label) {
		issue.Labels = append(issue.Labels, label)
		st.s.state.issues[number] = issue
	}
	return nil
}

func (st issueStore) RemoveLabel(_ context.Context, number int, label string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	issue, ok := st.s.state.issues[number]
	if !ok {
		return fmt.Errorf("memory: issue %d: %w", number, core.ErrIssueNotFound)
	}
	kept := issue.Labels[:0]
	for _, existing := range issue.Labels {
		if existing != label {
			kept = append(kept, existing)
		}
	}
	issue.Labels = kept
	st.s.state.issues[number] = issue
	return nil
}

func (st issueStore) CountOpenedOn(_ context.Context, day time.Time) (int, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	target := day.UTC().Format("2006-01-02")
	count := 0
	for _, issue := range st.s.state.issues {
		if issue.CreatedAt.UTC().Format("2006-01-02") == target {
			count++
		}
	}
	return count, nil
}

type labelStore struct{ s *Store }

func (st labelStore) GetByName(_ context.Context, name string) (core.Label, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	label, ok := st.s.state.labels[name]
	if !ok {
		return core.Label{}, fmt.Errorf("memory: label %q: %w", name, core.ErrLabelNotFound)
	}
	return label, nil
}

func (st labelStore) Create(_ context.Context, label core.Label) (core.Label, error) {
	if err := label.Validate(); err != nil {
		return core.Label{}, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if _, exists := st.s.state.labels[label.Name]; exists {
		return core.Label{}, fmt.Errorf("memory: label %q: %w", label.Name, core.ErrDuplicateName)
	}
	st.s.state.labels[label.Name] = label
	return label, nil
}

func (st labelStore) Rename(_ context.Context, from string, to string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("memory: label name is required")
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	label, ok := st.s.state.labels[from]
	if !ok {
		return fmt.Errorf("memory: label %q: %w", from, core.ErrLabelNotFound)
	}
	if _, exists := st.s.state.labels[to]; exists && from != to {
		return fmt.Errorf("memory: label %q: %w", to, core.ErrDuplicateName)
	}
	delete(st.s.state.labels, from)
	label.Name = to
	st.s.state.labels[to] = label

	// The association rows follow the rename.
	for number, issue := range st.s.state.issues {
		for i, existing := range issue.Labels {
			if existing == from {
				issue.Labels[i] = to
				st.s.state.issues[number] = issue
			}
		}
	}
	return nil
}

func (st labelStore) Delete(_ context.Context, name string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if _, ok := st.s.state.labels[name]; !ok {
		return fmt.Errorf("memory: label %q: %w", name, core.ErrLabelNotFound)
	}
	delete(st.s.state.labels, name)
	for number, issue := range st.s.state.issues {
		kept := issue.Labels[:0]
		for _, existing := range issue.Labels {
			if existing != name {
				kept = append(kept, existing)
			}
		}
		issue.Labels = kept
		st.s.state.issues[number] = issue
	}
	return nil
}

type milestoneStore struct{ s *Store }

func (st milestoneStore) GetByTitle(_ context.Context, title string) (core.Milestone, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	milestone, ok := st.s.state.milestones[title]
	if !ok {
		return core.Milestone{}, fmt.Errorf("memory: milestone %q: %w", title, core.ErrMilestoneNotFound)
	}
	return milestone, nil
}

func (st milestoneStore) Create(_ context.Context, milestone core.Milestone) (core.Milestone, error) {
	if err := milestone.Validate(); err != nil {
		return core.Milestone{}, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if _, exists := st.s.state.milestones[milestone.Title]; exists {
		return core.Milestone{}, fmt.Errorf("memory: milestone %q: %w", milestone.Title, core.ErrDuplicateName)
	}
	st.s.state.milestones[milestone.Title] = milestone
	return milestone, nil
}

func (st milestoneStore) Rename(_ context.Context, from string, to string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("memory: milestone title is required")
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	milestone, ok := st.s.state.milestones[from]
	if !ok {
		return fmt.Errorf("memory: milestone %q: %w", from, core.ErrMilestoneNotFound)
	}
	if _, exists := st.s.state.milestones[to]; exists && from != to {
		return fmt.Errorf("memory: milestone %q: %w", to, core.ErrDuplicateName)
	}
	delete(st.s.state.milestones, from)
	milestone.Title = to
	st.s.state.milestones[to] = milestone

	for number, issue := range st.s.state.issues {
		if issue.Milestone != nil && *issue.Milestone == from {
			title := to
			issue.Milestone = &title
			st.s.state.issues[number] = issue
		}
	}
	return nil
}

func (st milestoneStore) Delete(_ context.Context, title string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if _, ok := st.s.state.milestones[title]; !ok {
		return fmt.Errorf("memory: milestone %q: %w", title, core.ErrMilestoneNotFound)
	}
	delete(st.s.state.milestones, title)
	for number, issue := range st.s.state.issues {
		if issue.Milestone != nil && *issue.Milestone == title {
			issue.Milestone = nil
			st.s.state.issues[number] = issue
		}
	}
	return nil
}

type eventStore struct{ s *Store }

func (st eventStore) Append(_ context.Context, event core.Event) (core.Event, error) {
	if err := event.Validate(); err != nil {
		return core.Event{}, err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.state.nextEvent++
	event.ID = fmt.Sprintf("event_%d", st.s.state.nextEvent)
	st.s.state.events = append(st.s.state.events, event)
	return event, nil
}

func (st eventStore) ListByIssue(_ context.Context, number int, limit int) ([]core.Event, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	var out []core.Event
	for _, event := range st.s.state.events {
		if event.IssueNumber == number {
			out = append(out, event)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type dailyTotalStore struct{ s *Store }

func (st dailyTotalStore) Upsert(_ context.Context, total core.DailyTotal) (core.DailyTotal, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	key := total.Day.UTC().Format("2006-01-02")
	existing, ok := st.s.state.totals[key]
	if ok {
		existing.Count = total.Count
		st.s.state.totals[key] = existing
		return existing, nil
	}
	st.s.state.nextTotal++
	total.ID = fmt.Sprintf("total_%d", st.s.state.nextTotal)
	total.Day = total.Day.UTC().Truncate(24 * time.Hour)
	st.s.state.totals[key] = total
	return total, nil
}

func (st dailyTotalStore) List(_ context.Context, from time.Time, to time.Time) ([]core.DailyTotal, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	var out []core.DailyTotal
	for _, total := range st.s.state.totals {
		day := total.Day.UTC()
		if day.Before(from.UTC()) || day.After(to.UTC()) {
			continue
		}
		out = append(out, total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func cloneIssue(issue core.Issue) core.Issue {
	copied := issue
	copied.Labels = append([]string(nil), issue.Labels...)
	if issue.Milestone != nil {
		title := *issue.Milestone
		copied.Milestone = &title
	}
	return copied
}
