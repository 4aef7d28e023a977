package adapters_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-issue-metrics/adapters/gocommand"
	"github.com/goliatone/go-issue-metrics/adapters/gojob"
	"github.com/goliatone/go-issue-metrics/adapters/gologger"
	metricscommand "github.com/goliatone/go-issue-metrics/command"
	"github.com/goliatone/go-issue-metrics/core"
)

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	ctx := context.Background()

	logger := &compatLogger{}
	provider := &compatProvider{logger: logger}

	_, _, jobProvider, jobLogger := gologger.RollupWorkerLoggers(provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	enqueueProbe := &compatEnqueuer{}
	enqueueAdapter := gojob.NewEnqueuerAdapter(enqueueProbe)
	if err := enqueueAdapter.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          gojob.JobIDDailyTotalsRollup,
		ScriptPath:     "metrics.daily_totals.rollup",
		Parameters:     map[string]any{"day": "2026-08-29"},
		IdempotencyKey: "idem_1",
		DedupPolicy:    "drop",
	}); err != nil {
		t.Fatalf("enqueue via gojob adapter: %v", err)
	}
	if enqueueProbe.last == nil || enqueueProbe.last.JobID != gojob.JobIDDailyTotalsRollup {
		t.Fatalf("expected go-job message mapping through enqueuer adapter")
	}

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := commandAdapter.RegisterCommand(command.CommandFunc[compatMessage](func(context.Context, compatMessage) error {
		return nil
	})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get("metrics.compat.command"); !ok {
		t.Fatalf("expected command resolver hook to mirror command into go-job queue registry")
	}
}

func TestRuntimeCompatibility_NotificationCommandDispatchThroughWrappers(t *testing.T) {
	processor := &compatProcessor{}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	processSub, err := gocommand.RegisterAndSubscribe(adapter, metricscommand.NewProcessNotificationCommand(processor))
	if err != nil {
		t.Fatalf("register process notification wrapper: %v", err)
	}
	defer processSub.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	err = gocommand.Dispatch(context.Background(), metricscommand.ProcessNotificationMessage{
		Request: core.InboundRequest{
			Headers: map[string]string{"X-GitHub-Event": "issues"},
			Body:    []byte(`{"action":"opened"}`),
		},
	})
	if err != nil {
		t.Fatalf("dispatch process notification: %v", err)
	}
	if processor.calls != 1 {
		t.Fatalf("expected processor invocation through command wrapper, got %d", processor.calls)
	}
	if processor.lastCategory != "issues" {
		t.Fatalf("expected category header forwarded, got %q", processor.lastCategory)
	}
}

type compatMessage struct{}

func (compatMessage) Type() string { return "metrics.compat.command" }

type compatEnqueuer struct {
	last *job.ExecutionMessage
}

func (e *compatEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	e.last = msg
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }

type compatProcessor struct {
	calls        int
	lastCategory string
}

func (p *compatProcessor) Process(_ context.Context, req core.InboundRequest) (core.InboundResult, error) {
	p.calls++
	p.lastCategory = req.Headers["X-GitHub-Event"]
	return core.InboundResult{Accepted: true, StatusCode: 200, Body: "processed"}, nil
}
