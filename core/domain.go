package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrIssueNotFound     = errors.New("core: issue not found")
	ErrLabelNotFound     = errors.New("core: label not found")
	ErrMilestoneNotFound = errors.New("core: milestone not found")
	ErrDuplicateName     = errors.New("core: name already exists")
)

// EventCategory is the notification's top-level type as declared by the
// tracker's event header.
type EventCategory string

const (
	CategoryIssues    EventCategory = "issues"
	CategoryLabel     EventCategory = "label"
	CategoryMilestone EventCategory = "milestone"
	CategoryPing      EventCategory = "ping"
	CategoryUnknown   EventCategory = "unknown"
)

func ParseCategory(value string) EventCategory {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case string(CategoryIssues):
		return CategoryIssues
	case string(CategoryLabel):
		return CategoryLabel
	case string(CategoryMilestone):
		return CategoryMilestone
	case string(CategoryPing):
		return CategoryPing
	default:
		return CategoryUnknown
	}
}

// IssueAction is the sub-event of an issues-category notification.
type IssueAction string

const (
	ActionOpened       IssueAction = "opened"
	ActionEdited       IssueAction = "edited"
	ActionClosed       IssueAction = "closed"
	ActionReopened     IssueAction = "reopened"
	ActionLabeled      IssueAction = "labeled"
	ActionUnlabeled    IssueAction = "unlabeled"
	ActionMilestoned   IssueAction = "milestoned"
	ActionUnmilestoned IssueAction = "unmilestoned"
	ActionAssigned     IssueAction = "assigned"
	ActionUnassigned   IssueAction = "unassigned"
)

// Lifecycle actions for label and milestone category notifications.
const (
	LifecycleCreated = "created"
	LifecycleEdited  = "edited"
	LifecycleDeleted = "deleted"
)

// Detail payload keys carried on Event records. The wire keys are part of the
// stored data contract and must not change.
const (
	DetailOldTitle       = "old title"
	DetailMilestoneTitle = "milestone title"
	DetailLabelName      = "label name"
)

// Issue is a tracker issue as this system records it. Identity is the
// tracker-assigned number; issues are never deleted here.
type Issue struct {
	Number    int
	Title     string
	CreatedAt time.Time
	Open      bool
	// Milestone is the associated milestone's title. A nil value is a valid
	// intermediate state between an unmilestoned and a milestoned notification.
	Milestone *string
	Labels    []string
}

func (i Issue) Validate() error {
	if i.Number <= 0 {
		return fmt.Errorf("core: issue number must be positive, got %d", i.Number)
	}
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("core: issue title is required")
	}
	return nil
}

// HasLabel reports membership in the issue's label set.
func (i Issue) HasLabel(name string) bool {
	for _, label := range i.Labels {
		if label == name {
			return true
		}
	}
	return false
}

// Label identity is its name; presence in the store models existence.
type Label struct {
	Name string
}

func (l Label) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("core: label name is required")
	}
	return nil
}

// Milestone identity is its title; presence in the store models existence.
type Milestone struct {
	Title string
}

func (m Milestone) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("core: milestone title is required")
	}
	return nil
}

// Event is one append-only log record for an issue. ID is assigned by the
// store on insertion; records are never updated or deleted.
type Event struct {
	ID          string
	IssueNumber int
	Actor       string
	Action      string
	Details     map[string]any
	ReceivedAt  time.Time
}

func (e Event) Validate() error {
	if e.IssueNumber <= 0 {
		return fmt.Errorf("core: event issue number must be positive, got %d", e.IssueNumber)
	}
	if strings.TrimSpace(e.Actor) == "" {
		return fmt.Errorf("core: event actor is required")
	}
	if strings.TrimSpace(e.Action) == "" {
		return fmt.Errorf("core: event action is required")
	}
	return nil
}

// IssueEvent is the normalized, action-agnostic record extracted from a raw
// issues-category notification payload.
type IssueEvent struct {
	IssueNumber int
	Title       string
	CreatedAt   time.Time
	Milestone   *string
	Actor       string
	Action      IssueAction
	Details     map[string]any
	ReceivedAt  time.Time
}

func (e IssueEvent) Validate() error {
	if e.IssueNumber <= 0 {
		return fmt.Errorf("core: issue event number must be positive, got %d", e.IssueNumber)
	}
	if strings.TrimSpace(string(e.Action)) == "" {
		return fmt.Errorf("core: issue event action is required")
	}
	if strings.TrimSpace(e.Actor) == "" {
		return fmt.Errorf("core: issue event actor is required")
	}
	return nil
}

// LifecycleEvent is the normalized record for label and milestone category
// notifications, which are independent of the issue state machine.
type LifecycleEvent struct {
	Category EventCategory
	Action   string
	Name     string
	// PriorName is set when the notification carries a rename; the entity is
	// looked up by its prior name and moved to Name.
	PriorName string
}

func (e LifecycleEvent) Validate() error {
	if e.Category != CategoryLabel && e.Category != CategoryMilestone {
		return fmt.Errorf("core: lifecycle category must be label or milestone, got %q", e.Category)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("core: lifecycle entity name is required")
	}
	if strings.TrimSpace(e.Action) == "" {
		return fmt.Errorf("core: lifecycle action is required")
	}
	return nil
}

// DailyTotal is one reporting rollup row: the number of issues opened on Day.
type DailyTotal struct {
	ID    string
	Day   time.Time
	Count int
}
