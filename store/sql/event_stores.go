package sqlstore

import (
	"context"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-issue-metrics/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EventStore is the append-only issue event log. Records are never updated or
// deleted.
type EventStore struct {
	idb  bun.IDB
	tx   *bun.Tx
	repo repository.Repository[*eventRecord]
}

var _ core.EventStore = (*EventStore)(nil)

func (s *EventStore) Append(ctx context.Context, event core.Event) (core.Event, error) {
	if s == nil || s.repo == nil {
		return core.Event{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	if err := event.Validate(); err != nil {
		return core.Event{}, err
	}
	receivedAt := event.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	record := &eventRecord{
		ID:          uuid.NewString(),
		IssueNumber: event.IssueNumber,
		Actor:       event.Actor,
		Action:      event.Action,
		Details:     RedactDetails(event.Details),
		ReceivedAt:  receivedAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	var err error
	if s.tx != nil {
		_, err = s.repo.CreateTx(ctx, *s.tx, record)
	} else {
		_, err = s.repo.Create(ctx, record)
	}
	if err != nil {
		return core.Event{}, fmt.Errorf("sqlstore: append event: %w", err)
	}
	event.ID = record.ID
	event.Details = record.Details
	event.ReceivedAt = record.ReceivedAt
	return event, nil
}

func (s *EventStore) ListByIssue(ctx context.Context, number int, limit int) ([]core.Event, error) {
	if s == nil || s.idb == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	query := s.idb.NewSelect().
		Model((*eventRecord)(nil)).
		Where("?TableAlias.issue_number = ?", number).
		OrderExpr("?TableAlias.received_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []eventRecord
	if err := query.Scan(ctx, &records); err != nil {
		return nil, fmt.Errorf("sqlstore: list events for issue %d: %w", number, err)
	}
	out := make([]core.Event, 0, len(records))
	for _, record := range records {
		out = append(out, core.Event{
			ID:          record.ID,
			IssueNumber: record.IssueNumber,
			Actor:       record.Actor,
			Action:      record.Action,
			Details:     record.Details,
			ReceivedAt:  record.ReceivedAt,
		})
	}
	return out, nil
}
