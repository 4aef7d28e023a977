package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// InboundRequest is the transport-neutral shape of one webhook notification.
type InboundRequest struct {
	Headers  map[string]string
	Body     []byte
	Metadata map[string]any
}

// InboundResult captures the caller-visible outcome of processing a
// notification. Body is a plain-text response payload; diagnostic detail never
// travels on it.
type InboundResult struct {
	Accepted   bool
	StatusCode int
	Body       string
	Metadata   map[string]any
}

// TransportRequest describes one outbound read against the tracker API.
type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// IssueStore is the persistence gateway for issues. Implementations return
// ErrIssueNotFound (wrapped or bare) on lookup misses.
type IssueStore interface {
	GetByNumber(ctx context.Context, number int) (Issue, error)
	Create(ctx context.Context, issue Issue) (Issue, error)
	Update(ctx context.Context, issue Issue) (Issue, error)
	AddLabel(ctx context.Context, number int, label string) error
	RemoveLabel(ctx context.Context, number int, label string) error
	CountOpenedOn(ctx context.Context, day time.Time) (int, error)
}

type LabelStore interface {
	GetByName(ctx context.Context, name string) (Label, error)
	Create(ctx context.Context, label Label) (Label, error)
	Rename(ctx context.Context, from string, to string) error
	Delete(ctx context.Context, name string) error
}

type MilestoneStore interface {
	GetByTitle(ctx context.Context, title string) (Milestone, error)
	Create(ctx context.Context, milestone Milestone) (Milestone, error)
	Rename(ctx context.Context, from string, to string) error
	Delete(ctx context.Context, title string) error
}

type EventStore interface {
	Append(ctx context.Context, event Event) (Event, error)
	ListByIssue(ctx context.Context, number int, limit int) ([]Event, error)
}

type DailyTotalStore interface {
	Upsert(ctx context.Context, total DailyTotal) (DailyTotal, error)
	List(ctx context.Context, from time.Time, to time.Time) ([]DailyTotal, error)
}

// Stores groups the entity gateways that participate in one logical unit.
type Stores interface {
	Issues() IssueStore
	Labels() LabelStore
	Milestones() MilestoneStore
	Events() EventStore
	DailyTotals() DailyTotalStore
}

// UnitOfWork runs a function against transaction-bound stores. The function's
// error rolls the whole unit back; nil commits it. Entity mutations and their
// event appends must share one unit.
type UnitOfWork interface {
	Stores
	Within(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// IssueEventHandler consumes normalized notifications and applies their state
// transitions through the persistence gateway.
type IssueEventHandler interface {
	HandleIssueEvent(ctx context.Context, event IssueEvent) error
	HandleLifecycleEvent(ctx context.Context, event LifecycleEvent) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string)       {}
func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// Job execution contracts, mirrored onto go-job through adapters/gojob.

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}
