// Package issuemetrics assembles the webhook-ingestion pipeline: signature
// verification, event classification, payload normalization, and dispatch of
// state transitions into the issue store, plus the reporting command/query
// handlers layered on top.
package issuemetrics

import (
	"net/http"
	"strings"

	metricscommand "github.com/goliatone/go-issue-metrics/command"
	"github.com/goliatone/go-issue-metrics/core"
	"github.com/goliatone/go-issue-metrics/inbound"
	"github.com/goliatone/go-issue-metrics/jobs"
	"github.com/goliatone/go-issue-metrics/query"
	"github.com/goliatone/go-issue-metrics/transport"
	"github.com/goliatone/go-issue-metrics/webhooks"

	goerrors "github.com/goliatone/go-errors"
)

type Config = core.Config

type Issue = core.Issue
type Label = core.Label
type Milestone = core.Milestone
type Event = core.Event
type DailyTotal = core.DailyTotal

type InboundRequest = core.InboundRequest
type InboundResult = core.InboundResult

type Stores = core.Stores
type UnitOfWork = core.UnitOfWork

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// Commands groups the mutating handlers the module exposes.
type Commands struct {
	ProcessNotification *metricscommand.ProcessNotificationCommand
	RefreshDailyTotals  *metricscommand.RefreshDailyTotalsCommand
}

// Queries groups the read-side handlers.
type Queries struct {
	GetIssue        *query.GetIssueQuery
	IssueTimeline   *query.IssueTimelineQuery
	ListDailyTotals *query.ListDailyTotalsQuery
}

// Service is the assembled pipeline: one processor for inbound notifications
// and the command/query handlers bound to the same unit of work.
type Service struct {
	cfg       core.Config
	uow       core.UnitOfWork
	processor *webhooks.Processor
	rollup    *jobs.DailyTotalsService
	commands  Commands
	queries   Queries
	logger    core.Logger
	metrics   core.MetricsRecorder
}

type Option func(*Service)

func WithLogger(logger core.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(metrics core.MetricsRecorder) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// Setup wires the full pipeline against the given unit of work. The webhook
// secret and header names come from cfg; the caller owns the store lifecycle.
func Setup(cfg core.Config, uow core.UnitOfWork, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Webhook.Secret) == "" {
		return nil, goerrors.New("issuemetrics: webhook secret is required", goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(core.MetricsErrorBadInput)
	}
	if uow == nil {
		return nil, goerrors.New("issuemetrics: unit of work is required", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.MetricsErrorInternal)
	}

	svc := &Service{
		cfg:     cfg,
		uow:     uow,
		metrics: core.NopMetricsRecorder{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(svc)
	}

	dispatcher := inbound.NewDispatcher(uow)
	dispatcher.Logger = svc.logger
	dispatcher.Metrics = svc.metrics

	processor := webhooks.NewProcessor(
		webhooks.NewSchemeHMACVerifier(cfg.Webhook.SignatureHeader, cfg.Webhook.Secret),
		webhooks.NewClassifier(cfg.Webhook.CategoryHeader),
		webhooks.NewExtractor(),
		dispatcher,
	)
	processor.Logger = svc.logger
	processor.Metrics = svc.metrics
	svc.processor = processor

	rollup := jobs.NewDailyTotalsService(uow).WithMetrics(svc.metrics)
	if svc.logger != nil {
		rollup = rollup.WithLogger(svc.logger)
	}
	svc.rollup = rollup

	svc.commands = Commands{
		ProcessNotification: metricscommand.NewProcessNotificationCommand(processor),
		RefreshDailyTotals:  metricscommand.NewRefreshDailyTotalsCommand(rollup),
	}
	svc.queries = Queries{
		GetIssue:        query.NewGetIssueQuery(uow.Issues()),
		IssueTimeline:   query.NewIssueTimelineQuery(uow.Issues(), uow.Events()),
		ListDailyTotals: query.NewListDailyTotalsQuery(uow.DailyTotals()),
	}

	return svc, nil
}

func (s *Service) Config() core.Config {
	if s == nil {
		return core.Config{}
	}
	return s.cfg
}

func (s *Service) Processor() *webhooks.Processor {
	if s == nil {
		return nil
	}
	return s.processor
}

func (s *Service) Rollup() *jobs.DailyTotalsService {
	if s == nil {
		return nil
	}
	return s.rollup
}

func (s *Service) Commands() Commands {
	if s == nil {
		return Commands{}
	}
	return s.commands
}

func (s *Service) Queries() Queries {
	if s == nil {
		return Queries{}
	}
	return s.queries
}

// HTTPHandler exposes the pipeline as an http.Handler for the webhook
// endpoint.
func (s *Service) HTTPHandler() http.Handler {
	if s == nil || s.processor == nil {
		return nil
	}
	listener := transport.NewWebhookListener(s.processor)
	if s.logger != nil {
		listener = listener.WithLogger(s.logger)
	}
	return listener
}
