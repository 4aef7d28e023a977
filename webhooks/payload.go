package webhooks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChangeEntry is one entry of a notification's `changes` map, keyed by the
// edited field name.
type ChangeEntry struct {
	From string `json:"from"`
}

type milestoneRef struct {
	Title string `json:"title"`
}

type labelRef struct {
	Name string `json:"name"`
}

type userRef struct {
	Login string `json:"login"`
}

type issueRef struct {
	Number    int           `json:"number"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Milestone *milestoneRef `json:"milestone"`
}

// IssuesPayload is the raw wire shape of an issues-category notification. The
// optional Label and Milestone members vary with the action; the extractor is
// the only consumer that needs to care.
type IssuesPayload struct {
	Action  string                 `json:"action"`
	Changes map[string]ChangeEntry `json:"changes"`
	Issue   issueRef               `json:"issue"`
	Label   *labelRef              `json:"label"`
	// Milestone is the top-level member carried by milestoned and unmilestoned
	// notifications. On unmilestoned the issue's own milestone member is
	// already null, so this is the only place the removed title survives.
	Milestone *milestoneRef `json:"milestone"`
	Sender    userRef       `json:"sender"`
}

// LifecyclePayload is the raw wire shape of a label or milestone category
// notification.
type LifecyclePayload struct {
	Action    string                 `json:"action"`
	Changes   map[string]ChangeEntry `json:"changes"`
	Label     *labelRef              `json:"label"`
	Milestone *milestoneRef          `json:"milestone"`
	Sender    userRef                `json:"sender"`
}

func ParseIssuesPayload(body []byte) (IssuesPayload, error) {
	var payload IssuesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return IssuesPayload{}, fmt.Errorf("webhooks: parse issues payload: %w", err)
	}
	if strings.TrimSpace(payload.Action) == "" {
		return IssuesPayload{}, fmt.Errorf("webhooks: issues payload action is required")
	}
	if payload.Issue.Number <= 0 {
		return IssuesPayload{}, fmt.Errorf("webhooks: issues payload issue number is required")
	}
	if strings.TrimSpace(payload.Sender.Login) == "" {
		return IssuesPayload{}, fmt.Errorf("webhooks: issues payload sender is required")
	}
	return payload, nil
}

func ParseLifecyclePayload(body []byte) (LifecyclePayload, error) {
	var payload LifecyclePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return LifecyclePayload{}, fmt.Errorf("webhooks: parse lifecycle payload: %w", err)
	}
	if strings.TrimSpace(payload.Action) == "" {
		return LifecyclePayload{}, fmt.Errorf("webhooks: lifecycle payload action is required")
	}
	if payload.Label == nil && payload.Milestone == nil {
		return LifecyclePayload{}, fmt.Errorf("webhooks: lifecycle payload needs a label or milestone member")
	}
	return payload, nil
}
