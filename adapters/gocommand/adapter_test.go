package gocommand

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	metricscommand "github.com/goliatone/go-issue-metrics/command"
	"github.com/goliatone/go-issue-metrics/core"
	metricsquery "github.com/goliatone/go-issue-metrics/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "metrics.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "metrics.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "metrics.command.test" }

type queueMessage struct{}

func (queueMessage) Type() string { return "metrics.command.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("metrics.command.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

type pipelineProcessor struct {
	calls int
}

func (p *pipelineProcessor) Process(_ context.Context, req core.InboundRequest) (core.InboundResult, error) {
	p.calls++
	return core.InboundResult{Accepted: true, StatusCode: 200, Body: "processed"}, nil
}

type pipelineRefresher struct {
	calls int
}

func (r *pipelineRefresher) RefreshDailyTotals(context.Context, time.Time, time.Time) ([]core.DailyTotal, error) {
	r.calls++
	return nil, nil
}

type pipelineIssueReader struct{}

func (pipelineIssueReader) GetByNumber(_ context.Context, number int) (core.Issue, error) {
	return core.Issue{Number: number, Title: "Site broken on load", Open: true}, nil
}

type pipelineEventReader struct{}

func (pipelineEventReader) ListByIssue(context.Context, int, int) ([]core.Event, error) {
	return nil, nil
}

type pipelineTotalReader struct{}

func (pipelineTotalReader) List(context.Context, time.Time, time.Time) ([]core.DailyTotal, error) {
	return nil, nil
}

func TestRegisterPipelineWiresCommandsAndQueries(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	processor := &pipelineProcessor{}

	subs, err := RegisterPipeline(adapter, PipelineHandlers{
		ProcessNotification: metricscommand.NewProcessNotificationCommand(processor),
		RefreshDailyTotals:  metricscommand.NewRefreshDailyTotalsCommand(&pipelineRefresher{}),
		GetIssue:            metricsquery.NewGetIssueQuery(pipelineIssueReader{}),
		IssueTimeline:       metricsquery.NewIssueTimelineQuery(pipelineIssueReader{}, pipelineEventReader{}),
		ListDailyTotals:     metricsquery.NewListDailyTotalsQuery(pipelineTotalReader{}),
	})
	if err != nil {
		t.Fatalf("register pipeline: %v", err)
	}
	defer subs.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := Dispatch(context.Background(), metricscommand.ProcessNotificationMessage{
		Request: core.InboundRequest{
			Headers: map[string]string{"X-GitHub-Event": "issues"},
			Body:    []byte(`{"action":"opened"}`),
		},
	}); err != nil {
		t.Fatalf("dispatch process notification: %v", err)
	}
	if processor.calls != 1 {
		t.Fatalf("expected one processor call, got %d", processor.calls)
	}

	issue, err := Query[metricsquery.GetIssueMessage, core.Issue](context.Background(), metricsquery.GetIssueMessage{Number: 42})
	if err != nil {
		t.Fatalf("query get issue: %v", err)
	}
	if issue.Number != 42 || issue.Title != "Site broken on load" {
		t.Fatalf("unexpected issue %+v", issue)
	}
}

func TestRegisterPipelineSkipsNilHandlers(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())

	subs, err := RegisterPipeline(adapter, PipelineHandlers{
		ProcessNotification: metricscommand.NewProcessNotificationCommand(&pipelineProcessor{}),
	})
	if err != nil {
		t.Fatalf("register partial pipeline: %v", err)
	}
	defer subs.Unsubscribe()

	if len(subs) != 1 {
		t.Fatalf("expected one subscription for the partial surface, got %d", len(subs))
	}
}
