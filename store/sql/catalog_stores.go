package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-issue-metrics/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LabelStore persists the label catalog. Renames move the single row and
// rewrite the association links in the same statement batch, so the caller's
// unit of work keeps the move atomic.
type LabelStore struct {
	idb  bun.IDB
	tx   *bun.Tx
	repo repository.Repository[*labelRecord]
}

var _ core.LabelStore = (*LabelStore)(nil)

func (s *LabelStore) GetByName(ctx context.Context, name string) (core.Label, error) {
	if s == nil || s.idb == nil {
		return core.Label{}, fmt.Errorf("sqlstore: label store is not configured")
	}
	record := labelRecord{}
	err := s.idb.NewSelect().
		Model(&record).
		Where("?TableAlias.name = ?", strings.TrimSpace(name)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return core.Label{}, mapLookupErr(err, core.ErrLabelNotFound, fmt.Sprintf("label %q", name))
	}
	return core.Label{Name: record.Name}, nil
}

func (s *LabelStore) Create(ctx context.Context, label core.Label) (core.Label, error) {
	if s == nil || s.repo == nil {
		return core.Label{}, fmt.Errorf("sqlstore: label store is not configured")
	}
	if err := label.Validate(); err != nil {
		return core.Label{}, err
	}
	now := time.Now().UTC()
	record := &labelRecord{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(label.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	var err error
	if s.tx != nil {
		_, err = s.repo.CreateTx(ctx, *s.tx, record)
	} else {
		_, err = s.repo.Create(ctx, record)
	}
	if err != nil {
		return core.Label{}, mapCreateErr(err, fmt.Sprintf("label %q", label.Name))
	}
	return core.Label{Name: record.Name}, nil
}

func (s *LabelStore) Rename(ctx context.Context, from string, to string) error {
	if s == nil || s.idb == nil {
		return fmt.Errorf("sqlstore: label store is not configured")
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("sqlstore: label name is required")
	}
	result, err := s.idb.NewUpdate().
		Model((*labelRecord)(nil)).
		Set("name = ?", to).
		Set("updated_at = ?", time.Now().UTC()).
		Where("name = ?", from).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlstore: label %q: %w", to, core.ErrDuplicateName)
		}
		return fmt.Errorf("sqlstore: rename label: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("sqlstore: label %q: %w", from, core.ErrLabelNotFound)
	}
	if _, err := s.idb.NewUpdate().
		Model((*issueLabelRecord)(nil)).
		Set("label_name = ?", to).
		Where("label_name = ?", from).
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: move label associations: %w", err)
	}
	return nil
}

func (s *LabelStore) Delete(ctx context.Context, name string) error {
	if s == nil || s.idb == nil {
		return fmt.Errorf("sqlstore: label store is not configured")
	}
	name = strings.TrimSpace(name)
	result, err := s.idb.NewDelete().
		Model((*labelRecord)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: delete label: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("sqlstore: label %q: %w", name, core.ErrLabelNotFound)
	}
	if _, err := s.idb.NewDelete().
		Model((*issueLabelRecord)(nil)).
		Where("label_name = ?", name).
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: delete label associations: %w", err)
	}
	return nil
}

// MilestoneStore persists the milestone catalog. Issues reference milestones
// by title; renames and deletes keep those references consistent.
type MilestoneStore struct {
	idb  bun.IDB
	tx   *bun.Tx
	repo repository.Repository[*milestoneRecord]
}

var _ core.MilestoneStore = (*MilestoneStore)(nil)

func (s *MilestoneStore) GetByTitle(ctx context.Context, title string) (core.Milestone, error) {
	if s == nil || s.idb == nil {
		return core.Milestone{}, fmt.Errorf("sqlstore: milestone store is not configured")
	}
	record := milestoneRecord{}
	err := s.idb.NewSelect().
		Model(&record).
		Where("?TableAlias.title = ?", strings.TrimSpace(title)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return core.Milestone{}, mapLookupErr(err, core.ErrMilestoneNotFound, fmt.Sprintf("milestone %q", title))
	}
	return core.Milestone{Title: record.Title}, nil
}

func (s *MilestoneStore) Create(ctx context.Context, milestone core.Milestone) (core.Milestone, error) {
	if s == nil || s.repo == nil {
		return core.Milestone{}, fmt.Errorf("sqlstore: milestone store is not configured")
	}
	if err := milestone.Validate(); err != nil {
		return core.Milestone{}, err
	}
	now := time.Now().UTC()
	record := &milestoneRecord{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(milestone.Title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	var err error
	if s.tx != nil {
		_, err = s.repo.CreateTx(ctx, *s.tx, record)
	} else {
		_, err = s.repo.Create(ctx, record)
	}
	if err != nil {
		return core.Milestone{}, mapCreateErr(err, fmt.Sprintf("milestone %q", milestone.Title))
	}
	return core.Milestone{Title: record.Title}, nil
}

func (s *MilestoneStore) Rename(ctx context.Context, from string, to string) error {
	if s == nil || s.idb == nil {
		return fmt.Errorf("sqlstore: milestone store is not configured")
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("sqlstore: milestone title is required")
	}
	result, err := s.idb.NewUpdate().
		Model((*milestoneRecord)(nil)).
		Set("title = ?", to).
		Set("updated_at = ?", time.Now().UTC()).
		Where("title = ?", from).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlstore: milestone %q: %w", to, core.ErrDuplicateName)
		}
		return fmt.Errorf("sqlstore: rename milestone: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("sqlstore: milestone %q: %w", from, core.ErrMilestoneNotFound)
	}
	if _, err := s.idb.NewUpdate().
		Model((*issueRecord)(nil)).
		Set("milestone_title = ?", to).
		Where("milestone_title = ?", from).
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: move milestone references: %w", err)
	}
	return nil
}

func (s *MilestoneStore) Delete(ctx context.Context, title string) error {
	if s == nil || s.idb == nil {
		return fmt.Errorf("sqlstore: milestone store is not configured")
	}
	title = strings.TrimSpace(title)
	result, err := s.idb.NewDelete().
		Model((*milestoneRecord)(nil)).
		Where("title = ?", title).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: delete milestone: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("sqlstore: milestone %q: %w", title, core.ErrMilestoneNotFound)
	}
	if _, err := s.idb.NewUpdate().
		Model((*issueRecord)(nil)).
		Set("milestone_title = NULL").
		Where("milestone_title = ?", title).
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: clear milestone references: %w", err)
	}
	return nil
}
