package sqlstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-issue-metrics/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IssueStore persists issues and their label associations. Reads and updates
// run raw bun queries against the bound handle so the same store works inside
// and outside a transaction; creates go through the repository.
type IssueStore struct {
	idb  bun.IDB
	tx   *bun.Tx
	repo repository.Repository[*issueRecord]
	link repository.Repository[*issueLabelRecord]
}

var _ core.IssueStore = (*IssueStore)(nil)

func (s *IssueStore) GetByNumber(ctx context.Context, number int) (core.Issue, error) {
	if s == nil || s.idb == nil {
		return core.Issue{}, fmt.Errorf("sqlstore: issue store is not configured")
	}
	record := issueRecord{}
	err := s.idb.NewSelect().
		Model(&record).
		Where("?TableAlias.number = ?", number).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return core.Issue{}, mapLookupErr(err, core.ErrIssueNotFound, fmt.Sprintf("issue %d", number))
	}

	labels, err := s.labelsFor(ctx, number)
	if err != nil {
		return core.Issue{}, err
	}
	return issueFromRecord(record, labels), nil
}

func (s *IssueStore) Create(ctx context.Context, issue core.Issue) (core.Issue, error) {
	if s == nil || s.repo == nil {
		return core.Issue{}, fmt.Errorf("sqlstore: issue store is not configured")
	}
	if err := issue.Validate(); err != nil {
		return core.Issue{}, err
	}
	now := time.Now().UTC()
	record := &issueRecord{
		ID:             uuid.NewString(),
		Number:         issue.Number,
		Title:          issue.Title,
		Open:           issue.Open,
		MilestoneTitle: cloneStringPtr(issue.Milestone),
		CreatedAt:      issue.CreatedAt.UTC(),
		UpdatedAt:      now,
	}
	if err := s.create(ctx, record); err != nil {
		return core.Issue{}, mapCreateErr(err, fmt.Sprintf("issue %d", issue.Number))
	}
	for _, label := range issue.Labels {
		if err := s.AddLabel(ctx, issue.Number, label); err != nil {
			return core.Issue{}, err
		}
	}
	return issue, nil
}

func (s *IssueStore) Update(ctx context.Context, issue core.Issue) (core.Issue, error) {
	if s == nil || s.idb == nil {
		return core.Issue{}, fmt.Errorf("sqlstore: issue store is not configured")
	}
	if err := issue.Validate(); err != nil {
		return core.Issue{}, err
	}
	result, err := s.idb.NewUpdate().
		Model((*issueRecord)(nil)).
		Set("title = ?", issue.Title).
		Set("is_open = ?", issue.Open).
		Set("milestone_title = ?", cloneStringPtr(issue.Milestone)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("number = ?", issue.Number).
		Exec(ctx)
	if err != nil {
		return core.Issue{}, fmt.Errorf("sqlstore: update issue %d: %w", issue.Number, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return core.Issue{}, fmt.Errorf("sqlstore: issue %d: %w", issue.Number, core.ErrIssueNotFound)
	}
	return issue, nil
}

func (s *IssueStore) AddLabel(ctx context.Context, number int, label string) error {
	if s == nil || s.idb == nil {
		return fmt.Errorf("sqlstore: issue store is not configured")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("sqlstore: label name is required")
	}
	exists, err := s.idb.NewSelect().
		Model((*issueLabelRecord)(nil)).
		Where("issue_number = ?", number).
		Where("label_name = ?", label).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: check issue label: %w", err)
	}
	if exists {
		return nil
	}
	record := &issueLabelRecord{
		ID:          uuid.NewString(),
		IssueNumber: number,
		LabelName:   label,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.createLink(ctx, record); err != nil {
		return fmt.Errorf("sqlstore: add issue label: %w", err)
	}
	return nil
}

func (s *IssueStore) RemoveLabel(ctx context.Context, number int, label string) error {
	if s == nil || s.idb == nil {
		return fmt.Errorf("sqlstore: issue store is not configured")
	}
	_, err := s.idb.NewDelete().
		Model((*issueLabelRecord)(nil)).
		Where("issue_number = ?", number).
		Where("label_name = ?", strings.TrimSpace(label)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: remove issue label: %w", err)
	}
	return nil
}

func (s *IssueStore) CountOpenedOn(ctx context.Context, day time.Time) (int, error) {
	if s == nil || s.idb == nil {
		return 0, fmt.Errorf("sqlstore: issue store is not configured")
	}
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 1)
	count, err := s.idb.NewSelect().
		Model((*issueRecord)(nil)).
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: count issues opened on %s: %w", start.Format("2006-01-02"), err)
	}
	return count, nil
}

func (s *IssueStore) labelsFor(ctx context.Context, number int) ([]string, error) {
	var links []issueLabelRecord
	err := s.idb.NewSelect().
		Model(&links).
		Where("?TableAlias.issue_number = ?", number).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load issue labels: %w", err)
	}
	var labels []string
	for _, link := range links {
		labels = append(labels, link.LabelName)
	}
	sort.Strings(labels)
	return labels, nil
}

func (s *IssueStore) create(ctx context.Context, record *issueRecord) error {
	if s.tx != nil {
		_, err := s.repo.CreateTx(ctx, *s.tx, record)
		return err
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *IssueStore) createLink(ctx context.Context, record *issueLabelRecord) error {
	if s.tx != nil {
		_, err := s.link.CreateTx(ctx, *s.tx, record)
		return err
	}
	_, err := s.link.Create(ctx, record)
	return err
}

func issueFromRecord(record issueRecord, labels []string) core.Issue {
	return core.Issue{
		Number:    record.Number,
		Title:     record.Title,
		CreatedAt: record.CreatedAt,
		Open:      record.Open,
		Milestone: cloneStringPtr(record.MilestoneTitle),
		Labels:    labels,
	}
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
