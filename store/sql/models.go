package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type issueRecord struct {
	bun.BaseModel `bun:"table:issues,alias:iss"`

	ID             string    `bun:"id,pk"`
	Number         int       `bun:"number,notnull,unique"`
	Title          string    `bun:"title,notnull"`
	Open           bool      `bun:"is_open,notnull"`
	MilestoneTitle *string   `bun:"milestone_title"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type labelRecord struct {
	bun.BaseModel `bun:"table:labels,alias:lb"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type milestoneRecord struct {
	bun.BaseModel `bun:"table:milestones,alias:ms"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// issueLabelRecord links an issue to a label by name. The link follows label
// renames through an explicit update, there is no foreign key cascade across
// dialects.
type issueLabelRecord struct {
	bun.BaseModel `bun:"table:issue_labels,alias:il"`

	ID          string    `bun:"id,pk"`
	IssueNumber int       `bun:"issue_number,notnull"`
	LabelName   string    `bun:"label_name,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type eventRecord struct {
	bun.BaseModel `bun:"table:issue_events,alias:ev"`

	ID          string         `bun:"id,pk"`
	IssueNumber int            `bun:"issue_number,notnull"`
	Actor       string         `bun:"actor,notnull"`
	Action      string         `bun:"action,notnull"`
	Details     map[string]any `bun:"details,type:jsonb"`
	ReceivedAt  time.Time      `bun:"received_at,nullzero,notnull"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type dailyTotalRecord struct {
	bun.BaseModel `bun:"table:daily_totals,alias:dt"`

	ID        string    `bun:"id,pk"`
	Day       time.Time `bun:"day,notnull,unique"`
	Count     int       `bun:"count,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
