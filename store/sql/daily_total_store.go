package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-issue-metrics/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DailyTotalStore holds the opened-per-day reporting rollup, one row per
// calendar day.
type DailyTotalStore struct {
	idb  bun.IDB
	tx   *bun.Tx
	repo repository.Repository[*dailyTotalRecord]
}

var _ core.DailyTotalStore = (*DailyTotalStore)(nil)

func (s *DailyTotalStore) Upsert(ctx context.Context, total core.DailyTotal) (core.DailyTotal, error) {
	if s == nil || s.idb == nil {
		return core.DailyTotal{}, fmt.Errorf("sqlstore: daily total store is not configured")
	}
	day := total.Day.UTC().Truncate(24 * time.Hour)

	existing := dailyTotalRecord{}
	err := s.idb.NewSelect().
		Model(&existing).
		Where("?TableAlias.day = ?", day).
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil:
		if _, err := s.idb.NewUpdate().
			Model((*dailyTotalRecord)(nil)).
			Set("count = ?", total.Count).
			Set("updated_at = ?", time.Now().UTC()).
			Where("day = ?", day).
			Exec(ctx); err != nil {
			return core.DailyTotal{}, fmt.Errorf("sqlstore: update daily total: %w", err)
		}
		return core.DailyTotal{ID: existing.ID, Day: day, Count: total.Count}, nil
	case errors.Is(err, sql.ErrNoRows):
		record := &dailyTotalRecord{
			ID:        uuid.NewString(),
			Day:       day,
			Count:     total.Count,
			UpdatedAt: time.Now().UTC(),
		}
		var createErr error
		if s.tx != nil {
			_, createErr = s.repo.CreateTx(ctx, *s.tx, record)
		} else {
			_, createErr = s.repo.Create(ctx, record)
		}
		if createErr != nil {
			return core.DailyTotal{}, fmt.Errorf("sqlstore: create daily total: %w", createErr)
		}
		return core.DailyTotal{ID: record.ID, Day: day, Count: total.Count}, nil
	default:
		return core.DailyTotal{}, fmt.Errorf("sqlstore: load daily total: %w", err)
	}
}

func (s *DailyTotalStore) List(ctx context.Context, from time.Time, to time.Time) ([]core.DailyTotal, error) {
	if s == nil || s.idb == nil {
		return nil, fmt.Errorf("sqlstore: daily total store is not configured")
	}
	var records []dailyTotalRecord
	err := s.idb.NewSelect().
		Model(&records).
		Where("?TableAlias.day >= ?", from.UTC().Truncate(24*time.Hour)).
		Where("?TableAlias.day <= ?", to.UTC().Truncate(24*time.Hour)).
		OrderExpr("?TableAlias.day ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list daily totals: %w", err)
	}
	out := make([]core.DailyTotal, 0, len(records))
	for _, record := range records {
		out = append(out, core.DailyTotal{ID: record.ID, Day: record.Day, Count: record.Count})
	}
	return out, nil
}
