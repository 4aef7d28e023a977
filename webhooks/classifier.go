package webhooks

import (
	"strings"

	"github.com/goliatone/go-issue-metrics/core"
)

// desirableIssueActions are the issue-category actions persisted as-is.
// "edited" is handled separately because only title edits are desirable.
var desirableIssueActions = map[core.IssueAction]struct{}{
	core.ActionOpened:       {},
	core.ActionClosed:       {},
	core.ActionReopened:     {},
	core.ActionLabeled:      {},
	core.ActionUnlabeled:    {},
	core.ActionMilestoned:   {},
	core.ActionUnmilestoned: {},
}

// knownIssueActions additionally covers actions we acknowledge but never
// persist, so genuinely novel actions can be logged as such.
var knownIssueActions = map[core.IssueAction]struct{}{
	core.ActionOpened:       {},
	core.ActionClosed:       {},
	core.ActionReopened:     {},
	core.ActionLabeled:      {},
	core.ActionUnlabeled:    {},
	core.ActionMilestoned:   {},
	core.ActionUnmilestoned: {},
	core.ActionEdited:       {},
	core.ActionAssigned:     {},
	core.ActionUnassigned:   {},
}

// lifecycleActions are the label/milestone category actions we process.
var lifecycleActions = map[string]struct{}{
	core.LifecycleCreated: {},
	core.LifecycleEdited:  {},
	core.LifecycleDeleted: {},
}

// Classifier decides a notification's category and, for issue-category
// notifications, whether the action is worth persisting.
type Classifier struct {
	CategoryHeader string
}

func NewClassifier(categoryHeader string) Classifier {
	return Classifier{CategoryHeader: strings.TrimSpace(categoryHeader)}
}

// Category reads the event-category header. An absent header yields an empty
// category, which the processor rejects before any signature work.
func (c Classifier) Category(req core.InboundRequest) (core.EventCategory, bool) {
	raw := headerValue(req.Headers, c.CategoryHeader)
	if raw == "" {
		return core.CategoryUnknown, false
	}
	return core.ParseCategory(raw), true
}

// DesirableIssueAction reports whether an issue-category action should be
// persisted. Body-only edits are acknowledged but not processed; a title
// change makes an edit desirable. The second return distinguishes a known
// undesirable action from an unrecognized one worth logging.
func (c Classifier) DesirableIssueAction(action core.IssueAction, changes map[string]ChangeEntry) (bool, bool) {
	if _, ok := desirableIssueActions[action]; ok {
		return true, true
	}
	if action == core.ActionEdited {
		_, titleChanged := changes["title"]
		return titleChanged, true
	}
	_, known := knownIssueActions[action]
	return false, known
}

// DesirableLifecycleAction reports whether a label/milestone category action
// is processed. Anything outside the explicit set (opened, closed, ...) is
// acknowledged without effect; deletion is never inferred from an unmatched
// action.
func (c Classifier) DesirableLifecycleAction(action string) bool {
	_, ok := lifecycleActions[strings.TrimSpace(strings.ToLower(action))]
	return ok
}
