package webhooks

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-issue-metrics/core"
)

// Extractor normalizes raw notification payloads into self-contained records.
// Details carry only what downstream processing cannot recover from the
// payload's standard members: the prior title on a title edit, the milestone
// title on milestone transitions, the label name on label transitions.
type Extractor struct {
	Now func() time.Time
}

func NewExtractor() Extractor {
	return Extractor{Now: time.Now}
}

func (e Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// IssueEvent builds the normalized record for an issues-category payload. The
// caller has already decided the action is desirable; this only reshapes.
func (e Extractor) IssueEvent(payload IssuesPayload) (core.IssueEvent, error) {
	action := core.IssueAction(strings.TrimSpace(strings.ToLower(payload.Action)))

	// The event timestamp is the update time the source reported, so replays
	// carry the original ordering. The local clock only covers payloads that
	// omit it.
	receivedAt := payload.Issue.UpdatedAt
	if receivedAt.IsZero() {
		receivedAt = e.now()
	}

	event := core.IssueEvent{
		IssueNumber: payload.Issue.Number,
		Title:       payload.Issue.Title,
		CreatedAt:   payload.Issue.CreatedAt,
		Actor:       payload.Sender.Login,
		Action:      action,
		ReceivedAt:  receivedAt.UTC(),
	}

	if payload.Issue.Milestone != nil {
		title := payload.Issue.Milestone.Title
		event.Milestone = &title
	}

	switch action {
	case core.ActionEdited:
		change, ok := payload.Changes["title"]
		if !ok {
			return core.IssueEvent{}, fmt.Errorf("webhooks: edited notification carries no title change")
		}
		event.Details = map[string]any{core.DetailOldTitle: change.From}
	case core.ActionMilestoned, core.ActionUnmilestoned:
		title, err := milestoneTitle(payload)
		if err != nil {
			return core.IssueEvent{}, err
		}
		event.Details = map[string]any{core.DetailMilestoneTitle: title}
	case core.ActionLabeled, core.ActionUnlabeled:
		if payload.Label == nil || strings.TrimSpace(payload.Label.Name) == "" {
			return core.IssueEvent{}, fmt.Errorf("webhooks: %s notification carries no label member", action)
		}
		event.Details = map[string]any{core.DetailLabelName: payload.Label.Name}
	}

	if err := event.Validate(); err != nil {
		return core.IssueEvent{}, err
	}
	return event, nil
}

// LifecycleEvent builds the normalized record for a label or milestone
// category payload. A rename surfaces as PriorName != Name; creation and
// deletion carry the current name only.
func (e Extractor) LifecycleEvent(category core.EventCategory, payload LifecyclePayload) (core.LifecycleEvent, error) {
	event := core.LifecycleEvent{
		Category: category,
		Action:   strings.TrimSpace(strings.ToLower(payload.Action)),
	}

	switch category {
	case core.CategoryLabel:
		if payload.Label == nil {
			return core.LifecycleEvent{}, fmt.Errorf("webhooks: label notification carries no label member")
		}
		event.Name = payload.Label.Name
		if change, ok := payload.Changes["name"]; ok {
			event.PriorName = change.From
		}
	case core.CategoryMilestone:
		if payload.Milestone == nil {
			return core.LifecycleEvent{}, fmt.Errorf("webhooks: milestone notification carries no milestone member")
		}
		event.Name = payload.Milestone.Title
		if change, ok := payload.Changes["title"]; ok {
			event.PriorName = change.From
		}
	default:
		return core.LifecycleEvent{}, fmt.Errorf("webhooks: category %q has no lifecycle shape", category)
	}

	if err := event.Validate(); err != nil {
		return core.LifecycleEvent{}, err
	}
	return event, nil
}

func milestoneTitle(payload IssuesPayload) (string, error) {
	if payload.Issue.Milestone != nil && strings.TrimSpace(payload.Issue.Milestone.Title) != "" {
		return payload.Issue.Milestone.Title, nil
	}
	if payload.Milestone != nil && strings.TrimSpace(payload.Milestone.Title) != "" {
		return payload.Milestone.Title, nil
	}
	return "", fmt.Errorf("webhooks: %s notification carries no milestone title", payload.Action)
}
