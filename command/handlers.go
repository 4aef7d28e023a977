package command

import (
	"context"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-issue-metrics/core"
)

type NotificationProcessor interface {
	Process(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
}

type DailyTotalsRefresher interface {
	RefreshDailyTotals(ctx context.Context, from time.Time, to time.Time) ([]core.DailyTotal, error)
}

type ProcessNotificationCommand struct {
	processor NotificationProcessor
}

func NewProcessNotificationCommand(processor NotificationProcessor) *ProcessNotificationCommand {
	return &ProcessNotificationCommand{processor: processor}
}

func (c *ProcessNotificationCommand) Execute(ctx context.Context, msg ProcessNotificationMessage) error {
	if c == nil || c.processor == nil {
		return commandDependencyError("command: notification processor is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.processor.Process(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshDailyTotalsCommand struct {
	service DailyTotalsRefresher
}

func NewRefreshDailyTotalsCommand(service DailyTotalsRefresher) *RefreshDailyTotalsCommand {
	return &RefreshDailyTotalsCommand{service: service}
}

func (c *RefreshDailyTotalsCommand) Execute(ctx context.Context, msg RefreshDailyTotalsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: daily totals service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.RefreshDailyTotals(ctx, msg.From, msg.To)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
