package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-issue-metrics/core"
)

type stubDelivery struct {
	msg      *core.JobExecutionMessage
	acked    bool
	nackOpts *core.JobNackOptions
}

func (d *stubDelivery) Message() *core.JobExecutionMessage { return d.msg }

func (d *stubDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *stubDelivery) Nack(_ context.Context, opts core.JobNackOptions) error {
	d.nackOpts = &opts
	return nil
}

type stubDequeuer struct {
	deliveries []*stubDelivery
}

func (s *stubDequeuer) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if len(s.deliveries) == 0 {
		return nil, context.Canceled
	}
	next := s.deliveries[0]
	s.deliveries = s.deliveries[1:]
	return next, nil
}

func TestRunner_RoutesAndAcks(t *testing.T) {
	delivery := &stubDelivery{msg: &core.JobExecutionMessage{JobID: "metrics.daily_totals.rollup"}}
	runner := NewRunner(&stubDequeuer{deliveries: []*stubDelivery{delivery}})

	handled := false
	if err := runner.Register("metrics.daily_totals.rollup", func(_ context.Context, msg *core.JobExecutionMessage) error {
		handled = true
		if msg.JobID != "metrics.daily_totals.rollup" {
			t.Fatalf("unexpected message: %+v", msg)
		}
		return nil
	}); err != nil {
		t.Fatalf("register handler: %v", err)
	}

	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !handled {
		t.Fatalf("expected handler invocation")
	}
	if !delivery.acked {
		t.Fatalf("expected delivery acked")
	}
}

func TestRunner_NacksOnHandlerFailure(t *testing.T) {
	delivery := &stubDelivery{msg: &core.JobExecutionMessage{JobID: "metrics.daily_totals.rollup"}}
	runner := NewRunner(&stubDequeuer{deliveries: []*stubDelivery{delivery}})

	boom := errors.New("boom")
	if err := runner.Register("metrics.daily_totals.rollup", func(context.Context, *core.JobExecutionMessage) error {
		return boom
	}); err != nil {
		t.Fatalf("register handler: %v", err)
	}

	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if delivery.acked {
		t.Fatalf("expected no ack on failure")
	}
	if delivery.nackOpts == nil || !delivery.nackOpts.Requeue {
		t.Fatalf("expected requeue nack, got %+v", delivery.nackOpts)
	}
	if delivery.nackOpts.Reason != "boom" {
		t.Fatalf("expected failure reason recorded, got %q", delivery.nackOpts.Reason)
	}
}

func TestRunner_DeadLettersUnknownJob(t *testing.T) {
	delivery := &stubDelivery{msg: &core.JobExecutionMessage{JobID: "metrics.unknown"}}
	runner := NewRunner(&stubDequeuer{deliveries: []*stubDelivery{delivery}})

	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if delivery.nackOpts == nil || !delivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter for unknown job, got %+v", delivery.nackOpts)
	}
}

func TestRunner_RunStopsOnContextCancel(t *testing.T) {
	runner := NewRunner(&stubDequeuer{})
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop when queue drains via cancel, got %v", err)
	}
}

func TestRunner_RegisterRejectsDuplicates(t *testing.T) {
	runner := NewRunner(&stubDequeuer{})
	handler := func(context.Context, *core.JobExecutionMessage) error { return nil }
	if err := runner.Register("metrics.daily_totals.rollup", handler); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := runner.Register("metrics.daily_totals.rollup", handler); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
