package webhooks

import (
	"testing"

	"github.com/goliatone/go-issue-metrics/core"
)

func TestClassifier_Category(t *testing.T) {
	classifier := NewClassifier("X-GitHub-Event")

	cases := []struct {
		name     string
		headers  map[string]string
		category core.EventCategory
		present  bool
	}{
		{"issues", map[string]string{"X-GitHub-Event": "issues"}, core.CategoryIssues, true},
		{"label", map[string]string{"X-GitHub-Event": "label"}, core.CategoryLabel, true},
		{"milestone", map[string]string{"X-GitHub-Event": "milestone"}, core.CategoryMilestone, true},
		{"ping", map[string]string{"X-GitHub-Event": "ping"}, core.CategoryPing, true},
		{"case folded header", map[string]string{"x-github-event": "issues"}, core.CategoryIssues, true},
		{"unknown value", map[string]string{"X-GitHub-Event": "pull_request"}, core.CategoryUnknown, true},
		{"missing header", map[string]string{}, core.CategoryUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			category, present := classifier.Category(core.InboundRequest{Headers: tc.headers})
			if present != tc.present {
				t.Fatalf("expected present=%v, got %v", tc.present, present)
			}
			if category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, category)
			}
		})
	}
}

func TestClassifier_DesirableIssueAction(t *testing.T) {
	classifier := NewClassifier("X-GitHub-Event")

	for _, action := range []core.IssueAction{
		core.ActionOpened,
		core.ActionClosed,
		core.ActionReopened,
		core.ActionLabeled,
		core.ActionUnlabeled,
		core.ActionMilestoned,
		core.ActionUnmilestoned,
	} {
		desirable, known := classifier.DesirableIssueAction(action, nil)
		if !desirable || !known {
			t.Fatalf("expected %q desirable and known", action)
		}
	}

	// Closed must not swallow reopened; both sit in the explicit set.
	if desirable, _ := classifier.DesirableIssueAction(core.ActionReopened, nil); !desirable {
		t.Fatalf("expected reopened to be desirable in its own right")
	}

	for _, action := range []core.IssueAction{core.ActionAssigned, core.ActionUnassigned} {
		desirable, known := classifier.DesirableIssueAction(action, nil)
		if desirable {
			t.Fatalf("expected %q undesirable", action)
		}
		if !known {
			t.Fatalf("expected %q to be a known action", action)
		}
	}

	desirable, known := classifier.DesirableIssueAction("locked", nil)
	if desirable || known {
		t.Fatalf("expected unrecognized action to be neither desirable nor known")
	}
}

func TestClassifier_EditedDesirableOnlyWithTitleChange(t *testing.T) {
	classifier := NewClassifier("X-GitHub-Event")

	desirable, known := classifier.DesirableIssueAction(core.ActionEdited, map[string]ChangeEntry{
		"title": {From: "old title text"},
	})
	if !desirable || !known {
		t.Fatalf("expected title edit to be desirable and known")
	}

	desirable, known = classifier.DesirableIssueAction(core.ActionEdited, map[string]ChangeEntry{
		"body": {From: "old body text"},
	})
	if desirable {
		t.Fatalf("expected body-only edit to be undesirable")
	}
	if !known {
		t.Fatalf("expected edited to remain a known action")
	}

	if desirable, _ := classifier.DesirableIssueAction(core.ActionEdited, nil); desirable {
		t.Fatalf("expected edit without changes to be undesirable")
	}
}

func TestClassifier_DesirableLifecycleAction(t *testing.T) {
	classifier := NewClassifier("X-GitHub-Event")

	for _, action := range []string{"created", "edited", "deleted"} {
		if !classifier.DesirableLifecycleAction(action) {
			t.Fatalf("expected %q to be desirable", action)
		}
	}
	for _, action := range []string{"closed", "opened", "", "archived"} {
		if classifier.DesirableLifecycleAction(action) {
			t.Fatalf("expected %q to be undesirable", action)
		}
	}
}
