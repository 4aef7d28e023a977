package jobs

import (
	"context"
	"time"

	"github.com/goliatone/go-issue-metrics/core"
	"github.com/goliatone/go-issue-metrics/query"
)

// DailyTotalsService recomputes the opened-per-day rollup from the issues
// table. Recounting from source makes the refresh safe to replay.
type DailyTotalsService struct {
	stores  core.Stores
	logger  core.Logger
	metrics core.MetricsRecorder
}

func NewDailyTotalsService(stores core.Stores) *DailyTotalsService {
	return &DailyTotalsService{stores: stores}
}

func (s *DailyTotalsService) WithLogger(logger core.Logger) *DailyTotalsService {
	s.logger = logger
	return s
}

func (s *DailyTotalsService) WithMetrics(metrics core.MetricsRecorder) *DailyTotalsService {
	s.metrics = metrics
	return s
}

// RefreshDailyTotals recounts every day in [from, to] and upserts one rollup
// row per day, zero counts included.
func (s *DailyTotalsService) RefreshDailyTotals(ctx context.Context, from time.Time, to time.Time) ([]core.DailyTotal, error) {
	if s == nil || s.stores == nil {
		return nil, rollupDependencyError("jobs: stores are required")
	}
	if to.Before(from) {
		return nil, rollupBadRange(from, to)
	}

	days := query.DaySpan(from, to)
	out := make([]core.DailyTotal, 0, len(days))
	for _, day := range days {
		count, err := s.stores.Issues().CountOpenedOn(ctx, day)
		if err != nil {
			return nil, rollupWrap(err, "jobs: count issues opened on "+day.Format("2006-01-02"))
		}
		total, err := s.stores.DailyTotals().Upsert(ctx, core.DailyTotal{Day: day, Count: count})
		if err != nil {
			return nil, rollupWrap(err, "jobs: upsert daily total for "+day.Format("2006-01-02"))
		}
		out = append(out, total)
	}

	if s.logger != nil {
		s.logger.Info("daily totals refreshed",
			"from", from.Format("2006-01-02"),
			"to", to.Format("2006-01-02"),
			"days", len(out),
		)
	}
	if s.metrics != nil {
		s.metrics.IncCounter(ctx, "jobs.daily_totals_refreshed", int64(len(out)), nil)
	}
	return out, nil
}
