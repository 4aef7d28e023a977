package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-issue-metrics/core"
)

// HandlerFunc executes one dequeued job message.
type HandlerFunc func(ctx context.Context, msg *core.JobExecutionMessage) error

// Runner drains a job queue and routes each delivery to the handler
// registered for its job ID. Successful handlers ack; failures nack with
// requeue, unknown job IDs dead-letter immediately.
type Runner struct {
	dequeuer core.JobDequeuer
	handlers map[string]HandlerFunc
	logger   core.Logger
	metrics  core.MetricsRecorder

	retryDelay time.Duration
}

func NewRunner(dequeuer core.JobDequeuer) *Runner {
	return &Runner{
		dequeuer:   dequeuer,
		handlers:   map[string]HandlerFunc{},
		retryDelay: 30 * time.Second,
	}
}

func (r *Runner) WithLogger(logger core.Logger) *Runner {
	r.logger = logger
	return r
}

func (r *Runner) WithMetrics(metrics core.MetricsRecorder) *Runner {
	r.metrics = metrics
	return r
}

func (r *Runner) WithRetryDelay(delay time.Duration) *Runner {
	if delay > 0 {
		r.retryDelay = delay
	}
	return r
}

func (r *Runner) Register(jobID string, handler HandlerFunc) error {
	if r == nil || r.handlers == nil {
		return fmt.Errorf("jobs: runner is not configured")
	}
	if jobID == "" {
		return fmt.Errorf("jobs: job id is required")
	}
	if handler == nil {
		return fmt.Errorf("jobs: handler is required for job %q", jobID)
	}
	if _, exists := r.handlers[jobID]; exists {
		return fmt.Errorf("jobs: handler already registered for job %q", jobID)
	}
	r.handlers[jobID] = handler
	return nil
}

// Run processes deliveries until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.dequeuer == nil {
		return fmt.Errorf("jobs: dequeuer is required")
	}
	for {
		if err := r.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// RunOnce dequeues and settles exactly one delivery.
func (r *Runner) RunOnce(ctx context.Context) error {
	if r == nil || r.dequeuer == nil {
		return fmt.Errorf("jobs: dequeuer is required")
	}
	delivery, err := r.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}

	msg := delivery.Message()
	if msg == nil {
		return delivery.Nack(ctx, core.JobNackOptions{
			DeadLetter: true,
			Reason:     "missing job message",
		})
	}

	handler, ok := r.handlers[msg.JobID]
	if !ok {
		r.log("no handler for job", "job_id", msg.JobID)
		r.count(ctx, "jobs.unroutable", map[string]string{"job_id": msg.JobID})
		return delivery.Nack(ctx, core.JobNackOptions{
			DeadLetter: true,
			Reason:     "no handler for job " + msg.JobID,
		})
	}

	if err := handler(ctx, msg); err != nil {
		r.log("job handler failed", "job_id", msg.JobID, "error", err)
		r.count(ctx, "jobs.failed", map[string]string{"job_id": msg.JobID})
		return delivery.Nack(ctx, core.JobNackOptions{
			Delay:   r.retryDelay,
			Requeue: true,
			Reason:  err.Error(),
		})
	}

	r.count(ctx, "jobs.completed", map[string]string{"job_id": msg.JobID})
	return delivery.Ack(ctx)
}

func (r *Runner) log(message string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Warn(message, args...)
}

func (r *Runner) count(ctx context.Context, name string, tags map[string]string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.IncCounter(ctx, name, 1, tags)
}
