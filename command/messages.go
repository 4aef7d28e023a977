package command

import (
	"time"

	"github.com/goliatone/go-issue-metrics/core"
)

const (
	TypeProcessNotification = "metrics.command.notification.process"
	TypeRefreshDailyTotals  = "metrics.command.daily_totals.refresh"
)

type ProcessNotificationMessage struct {
	Request core.InboundRequest
}

func (ProcessNotificationMessage) Type() string { return TypeProcessNotification }

func (m ProcessNotificationMessage) Validate() error {
	if len(m.Request.Body) == 0 {
		return commandValidationError("body", "notification body is required")
	}
	return nil
}

type RefreshDailyTotalsMessage struct {
	From time.Time
	To   time.Time
}

func (RefreshDailyTotalsMessage) Type() string { return TypeRefreshDailyTotals }

func (m RefreshDailyTotalsMessage) Validate() error {
	if m.From.IsZero() {
		return commandValidationError("from", "start day is required")
	}
	if m.To.IsZero() {
		return commandValidationError("to", "end day is required")
	}
	if m.To.Before(m.From) {
		return commandValidationError("to", "end day must not precede start day")
	}
	return nil
}
