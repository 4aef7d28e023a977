package inbound

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-issue-metrics/core"
)

// Dispatcher applies normalized notifications to the persistence gateway. All
// mutations triggered by one notification, including the event-log append,
// run inside a single unit of work; any failure rolls the whole unit back so
// replays observe a consistent store.
type Dispatcher struct {
	UnitOfWork core.UnitOfWork
	Logger     core.Logger
	Metrics    core.MetricsRecorder
}

func NewDispatcher(uow core.UnitOfWork) *Dispatcher {
	return &Dispatcher{
		UnitOfWork: uow,
		Metrics:    core.NopMetricsRecorder{},
	}
}

var _ core.IssueEventHandler = (*Dispatcher)(nil)

// HandleIssueEvent routes one issues-category notification through the state
// machine. Every branch appends exactly one event-log record. Transitions are
// replay-safe: applying the same notification twice converges on the same
// issue state, with one extra log record.
func (d *Dispatcher) HandleIssueEvent(ctx context.Context, event core.IssueEvent) error {
	if d == nil || d.UnitOfWork == nil {
		return inboundInternal("inbound: dispatcher requires a unit of work", nil)
	}
	if err := event.Validate(); err != nil {
		return inboundBadInput(err.Error(), map[string]any{"issue": event.IssueNumber})
	}

	return d.UnitOfWork.Within(ctx, func(ctx context.Context, stores core.Stores) error {
		switch event.Action {
		case core.ActionOpened:
			return d.applyOpened(ctx, stores, event)
		case core.ActionEdited:
			return d.applyEdited(ctx, stores, event)
		case core.ActionClosed:
			return d.applyStatus(ctx, stores, event, false)
		case core.ActionReopened:
			return d.applyStatus(ctx, stores, event, true)
		case core.ActionMilestoned:
			return d.applyMilestoned(ctx, stores, event)
		case core.ActionUnmilestoned:
			return d.applyUnmilestoned(ctx, stores, event)
		case core.ActionLabeled:
			return d.applyLabeled(ctx, stores, event)
		case core.ActionUnlabeled:
			return d.applyUnlabeled(ctx, stores, event)
		default:
			return inboundBadInput(
				fmt.Sprintf("inbound: action %q has no transition", event.Action),
				map[string]any{"issue": event.IssueNumber, "action": string(event.Action)},
			)
		}
	})
}

// HandleLifecycleEvent applies label and milestone catalog changes. Only the
// explicit created, edited, and deleted branches mutate; deletion is never
// inferred from an unmatched action. No event-log record is written, the log
// is issue-scoped.
func (d *Dispatcher) HandleLifecycleEvent(ctx context.Context, event core.LifecycleEvent) error {
	if d == nil || d.UnitOfWork == nil {
		return inboundInternal("inbound: dispatcher requires a unit of work", nil)
	}
	if err := event.Validate(); err != nil {
		return inboundBadInput(err.Error(), map[string]any{"name": event.Name})
	}

	return d.UnitOfWork.Within(ctx, func(ctx context.Context, stores core.Stores) error {
		switch event.Category {
		case core.CategoryLabel:
			return d.applyLabelLifecycle(ctx, stores, event)
		case core.CategoryMilestone:
			return d.applyMilestoneLifecycle(ctx, stores, event)
		default:
			return inboundBadInput(
				fmt.Sprintf("inbound: category %q has no lifecycle transition", event.Category),
				map[string]any{"name": event.Name},
			)
		}
	})
}

func (d *Dispatcher) applyOpened(ctx context.Context, stores core.Stores, event core.IssueEvent) error {
	issue, err := stores.Issues().GetByNumber(ctx, event.IssueNumber)
	switch {
	case err == nil:
		// Replayed or out-of-order open. Converge on the notification's
		// snapshot without losing accumulated labels.
		issue.Title = event.Title
		issue.Open = true
		if _, err := stores.Issues().Update(ctx, issue); err != nil {
			return inboundPersistence(err, "inbound: reopen on replayed open", metaIssue(event))
		}
	case core.IsNotFound(err):
		created := core.Issue{
			Number:    event.IssueNumber,
			Title:     event.Title,
			CreatedAt: event.CreatedAt,
			Open:      true,
			Milestone: event.Milestone,
		}
		if _, err := stores.Issues().Create(ctx, created); err != nil {
			return inboundPersistence(err, "inbound: create issue", metaIssue(event))
		}
	default:
		return inboundPersistence(err, "inbound: load issue", metaIssue(event))
	}
	return d.appendEvent(ctx, stores, event)
}

func (d *Dispatcher) applyEdited(ctx context.Context, stores core.Stores, event core.IssueEvent) error {
	issue, err := d.ensureIssue(ctx, stores, event)
	if err != nil {
		return err
	}
	issue.Title = event.Title
	if _, err := stores.Issues().Update(ctx, issue); err != nil {
		return inboundPersistence(err, "inbound: update issue title", metaIssue(event))
	}
	return d.appendEvent(ctx, stores, event)
}

func (d *Dispatcher) applyStatus(ctx context.Context, stores core.Stores, event core.IssueEvent, open bool) error {
	issue, err := d.ensureIssue(ctx, stores, event)
	if err != nil {
		return err
	}
	issue.Open = open
	if _, err := stores.Issues().Update(ctx, issue); err != nil {
		return inboundPersistence(err, "inbound: update issue status", metaIssue(event))
	}
	return d.appendEvent(ctx, stores, event)
}

func (d *Dispatcher) applyMilestoned(ctx context.Context, stores core.Stores, event core.IssueEvent) error {
	title, err := detailString(event, core.DetailMilestoneTitle)
	if err != nil {
		return err
	}

	// Adding a reference requires the referenced milestone to exist; a miss
	// aborts the unit so the notification can be replayed after the catalog
	// catches up.
	if _, err := stores.Milestones().GetByTitle(ctx, title); err != nil {
		if core.IsNotFound(err) {
			return inboundUnresolvedReference(
				fmt.Sprintf("inbound: milestone %q is not known", title),
				metaIssue(event),
			)
		}
		return inboundPersistence(err, "inbound: load milestone", metaIssue(event))
	}

	issue, err := d.ensureIssue(ctx, stores, event)
	if err != nil {
		return err
	}
	issue.Milestone = &title
	if _, err := stores.Issues().Update(ctx, issue); err != nil {
		return inboundPersistence(err, "inbound: set issue milestone", metaIssue(event))
	}
	return d.appendEvent(ctx, stores, event)
}

func (d *Dispatcher) applyUnmilestoned(ctx context.Context, stores core.Stores, event core.IssueEvent) error {
	issue, err := d.ensureIssue(ctx, stores, event)
	if err != nil {
		return err
	}
	// Removal clears unconditionally. A missing milestone row does not block
	// the clear, the two-phase move already deleted our view of it.
	issue.Milestone = nil
	if _, err := stores.Issues().Update(ctx, issue); err != nil {
		return inboundPersistence(err, "inbound: clear issue milestone", metaIssue(event))
	}
	return d.appendEvent(ctx, stores, event)
}

func (d *Dispatcher) applyLabeled(ctx context.Context, stores core.Stores, event core.IssueEvent) error {
	name, err := detailString(event, core.DetailLabelName)
	if err != nil {
		return err
	}

	if _, err := stores.Labels().GetByName(ctx, name); err != nil {
		if core.IsNotFound(err) {
			return inboundUnresolvedReference(
				fmt.Sprintf("inbound: label %q is not known", name),
				metaIssue(event),
			)
		}
		return inboundPersistence(err, "inbound: load label", metaIssue(event))
	}

	issue, err := d.ensureIssue(ctx, stores, event)
	if err != nil {
		return err
	}
	if !issue.HasLabel(name) {
		if err := stores.Issues().AddLabel(ctx, issue.Number, name); err != nil {
			return inboundPersistence(err, "inbound: add issue label", metaIssue(event))
		}
	}
	return d.appendEvent(ctx, stores, event)
}

func (d *Dispatcher) applyUnlabeled(ctx context.Context, stores core.Stores, event core.IssueEvent) error {
	name, err := detailString(event, core.DetailLabelName)
	if err != nil {
		return err
	}

	issue, err := d.ensureIssue(ctx, stores, event)
	if err != nil {
		return err
	}
	// Removing an absent label is a no-op, not an error.
	if issue.HasLabel(name) {
		if err := stores.Issues().RemoveLabel(ctx, issue.Number, name); err != nil {
			return inboundPersistence(err, "inbound: remove issue label", metaIssue(event))
		}
	}
	return d.appendEvent(ctx, stores, event)
}

func (d *Dispatcher) applyLabelLifecycle(ctx context.Context, stores core.Stores, event core.LifecycleEvent) error {
	switch event.Action {
	case core.LifecycleCreated:
		// Replayed creation finds the row already there.
		if _, err := stores.Labels().Create(ctx, core.Label{Name: event.Name}); err != nil && !isDuplicate(err) {
			return inboundPersistence(err, "inbound: create label", metaLifecycle(event))
		}
		return nil
	case core.LifecycleEdited:
		return d.applyRename(ctx, event,
			func(from, to string) error { return stores.Labels().Rename(ctx, from, to) },
			func(name string) error {
				_, err := stores.Labels().GetByName(ctx, name)
				return err
			},
			func(name string) error {
				_, err := stores.Labels().Create(ctx, core.Label{Name: name})
				return err
			},
		)
	case core.LifecycleDeleted:
		if err := stores.Labels().Delete(ctx, event.Name); err != nil && !core.IsNotFound(err) {
			return inboundPersistence(err, "inbound: delete label", metaLifecycle(event))
		}
		return nil
	default:
		return inboundBadInput(
			fmt.Sprintf("inbound: label action %q has no transition", event.Action),
			metaLifecycle(event),
		)
	}
}

func (d *Dispatcher) applyMilestoneLifecycle(ctx context.Context, stores core.Stores, event core.LifecycleEvent) error {
	switch event.Action {
	case core.LifecycleCreated:
		if _, err := stores.Milestones().Create(ctx, core.Milestone{Title: event.Name}); err != nil && !isDuplicate(err) {
			return inboundPersistence(err, "inbound: create milestone", metaLifecycle(event))
		}
		return nil
	case core.LifecycleEdited:
		return d.applyRename(ctx, event,
			func(from, to string) error { return stores.Milestones().Rename(ctx, from, to) },
			func(name string) error {
				_, err := stores.Milestones().GetByTitle(ctx, name)
				return err
			},
			func(name string) error {
				_, err := stores.Milestones().Create(ctx, core.Milestone{Title: name})
				return err
			},
		)
	case core.LifecycleDeleted:
		if err := stores.Milestones().Delete(ctx, event.Name); err != nil && !core.IsNotFound(err) {
			return inboundPersistence(err, "inbound: delete milestone", metaLifecycle(event))
		}
		return nil
	default:
		return inboundBadInput(
			fmt.Sprintf("inbound: milestone action %q has no transition", event.Action),
			metaLifecycle(event),
		)
	}
}

// applyRename moves an entity from its prior name to the new one. A replayed
// rename finds the target already in place and converges without a new row; a
// rename whose source never existed creates the target so later references
// resolve.
func (d *Dispatcher) applyRename(
	_ context.Context,
	event core.LifecycleEvent,
	rename func(from, to string) error,
	exists func(name string) error,
	create func(name string) error,
) error {
	prior := strings.TrimSpace(event.PriorName)
	if prior == "" || prior == event.Name {
		if err := exists(event.Name); err == nil {
			return nil
		} else if !core.IsNotFound(err) {
			return inboundPersistence(err, "inbound: load renamed entity", metaLifecycle(event))
		}
		if err := create(event.Name); err != nil {
			return inboundPersistence(err, "inbound: create renamed entity", metaLifecycle(event))
		}
		return nil
	}

	err := rename(prior, event.Name)
	switch {
	case err == nil:
		return nil
	case core.IsNotFound(err):
		if checkErr := exists(event.Name); checkErr == nil {
			return nil
		} else if !core.IsNotFound(checkErr) {
			return inboundPersistence(checkErr, "inbound: load rename target", metaLifecycle(event))
		}
		if createErr := create(event.Name); createErr != nil {
			return inboundPersistence(createErr, "inbound: create rename target", metaLifecycle(event))
		}
		return nil
	default:
		return inboundPersistence(err, "inbound: rename entity", metaLifecycle(event))
	}
}

// ensureIssue loads the issue, creating it from the notification's snapshot
// when the stream delivered a later action before the open.
func (d *Dispatcher) ensureIssue(ctx context.Context, stores core.Stores, event core.IssueEvent) (core.Issue, error) {
	issue, err := stores.Issues().GetByNumber(ctx, event.IssueNumber)
	if err == nil {
		return issue, nil
	}
	if !core.IsNotFound(err) {
		return core.Issue{}, inboundPersistence(err, "inbound: load issue", metaIssue(event))
	}
	d.log("issue unseen before this action, creating from notification snapshot",
		"issue", event.IssueNumber,
		"action", string(event.Action),
	)
	created := core.Issue{
		Number:    event.IssueNumber,
		Title:     event.Title,
		CreatedAt: event.CreatedAt,
		Open:      true,
	}
	issue, err = stores.Issues().Create(ctx, created)
	if err != nil {
		return core.Issue{}, inboundPersistence(err, "inbound: create issue", metaIssue(event))
	}
	return issue, nil
}

func (d *Dispatcher) appendEvent(ctx context.Context, stores core.Stores, event core.IssueEvent) error {
	record := core.Event{
		IssueNumber: event.IssueNumber,
		Actor:       event.Actor,
		Action:      string(event.Action),
		Details:     event.Details,
		ReceivedAt:  event.ReceivedAt,
	}
	if _, err := stores.Events().Append(ctx, record); err != nil {
		return inboundPersistence(err, "inbound: append event record", metaIssue(event))
	}
	d.count(ctx, "inbound.transitions", map[string]string{"action": string(event.Action)})
	return nil
}

func detailString(event core.IssueEvent, key string) (string, error) {
	raw, ok := event.Details[key]
	if !ok {
		return "", inboundBadInput(
			fmt.Sprintf("inbound: detail %q is required for action %q", key, event.Action),
			metaIssue(event),
		)
	}
	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", inboundBadInput(
			fmt.Sprintf("inbound: detail %q must be a non-empty string", key),
			metaIssue(event),
		)
	}
	return value, nil
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, core.ErrDuplicateName) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint")
}

func metaIssue(event core.IssueEvent) map[string]any {
	return map[string]any{
		"issue":  event.IssueNumber,
		"action": string(event.Action),
	}
}

func metaLifecycle(event core.LifecycleEvent) map[string]any {
	return map[string]any{
		"category": string(event.Category),
		"action":   event.Action,
		"name":     event.Name,
	}
}

func (d *Dispatcher) log(message string, args ...any) {
	if d != nil && d.Logger != nil {
		d.Logger.Info(message, args...)
	}
}

func (d *Dispatcher) count(ctx context.Context, name string, tags map[string]string) {
	if d != nil && d.Metrics != nil {
		d.Metrics.IncCounter(ctx, name, 1, tags)
	}
}
