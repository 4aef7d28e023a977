package webhooks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-issue-metrics/core"
)

// Plain-text response bodies. Diagnostic detail stays in logs; the sender only
// learns whether the notification was acknowledged.
const (
	ResponseMissingCategory = "not a recognized notification"
	ResponseForbidden       = "forbidden"
	ResponseAccepted        = "accepted"
	ResponsePong            = "pong"
	ResponseProcessed       = "processed"
)

// Processor runs the full inbound pipeline for one notification: category
// check, signature verification, classification, payload normalization, then
// handoff to the dispatcher. Rejections (401/403) return an error alongside
// the result; acknowledged-but-unprocessed notifications (202) do not, since
// the sender should never retry them.
type Processor struct {
	Verifier   Verifier
	Classifier Classifier
	Extractor  Extractor
	Handler    core.IssueEventHandler
	Logger     core.Logger
	Metrics    core.MetricsRecorder
}

func NewProcessor(verifier Verifier, classifier Classifier, extractor Extractor, handler core.IssueEventHandler) *Processor {
	return &Processor{
		Verifier:   verifier,
		Classifier: classifier,
		Extractor:  extractor,
		Handler:    handler,
		Metrics:    core.NopMetricsRecorder{},
	}
}

func (p *Processor) Process(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if p == nil || p.Handler == nil || p.Verifier == nil {
		return core.InboundResult{}, fmt.Errorf("webhooks: processor requires verifier and handler")
	}

	category, ok := p.Classifier.Category(req)
	if !ok {
		p.count(ctx, "webhooks.rejected", map[string]string{"reason": "missing_category"})
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusUnauthorized,
			Body:       ResponseMissingCategory,
			Metadata:   map[string]any{"rejected": true},
		}, fmt.Errorf("webhooks: event category header is required")
	}

	if err := p.Verifier.Verify(ctx, req); err != nil {
		p.count(ctx, "webhooks.rejected", map[string]string{"reason": "signature"})
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusForbidden,
			Body:       ResponseForbidden,
			Metadata:   map[string]any{"category": string(category), "rejected": true},
		}, err
	}

	switch category {
	case core.CategoryPing:
		return p.result(http.StatusOK, ResponsePong, category, ""), nil
	case core.CategoryIssues:
		return p.processIssues(ctx, req)
	case core.CategoryLabel, core.CategoryMilestone:
		return p.processLifecycle(ctx, category, req)
	default:
		p.count(ctx, "webhooks.rejected", map[string]string{"reason": "unknown_category"})
		p.log("unknown event category, rejecting",
			"category", headerValue(req.Headers, p.Classifier.CategoryHeader),
		)
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusForbidden,
			Body:       ResponseForbidden,
			Metadata:   map[string]any{"category": string(category), "rejected": true},
		}, fmt.Errorf("webhooks: unknown event category")
	}
}

func (p *Processor) processIssues(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	payload, err := ParseIssuesPayload(req.Body)
	if err != nil {
		p.log("malformed issues payload, acknowledging without effect", "error", err)
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "malformed_payload"})
		return p.result(http.StatusAccepted, ResponseAccepted, core.CategoryIssues, ""), nil
	}

	action := core.IssueAction(payload.Action)
	desirable, known := p.Classifier.DesirableIssueAction(action, payload.Changes)
	if !desirable {
		if !known {
			p.log("unrecognized issue action, acknowledging without effect",
				"action", payload.Action,
				"issue", payload.Issue.Number,
			)
		}
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "undesirable_action"})
		return p.result(http.StatusAccepted, ResponseAccepted, core.CategoryIssues, payload.Action), nil
	}

	event, err := p.Extractor.IssueEvent(payload)
	if err != nil {
		p.log("issues payload missing required members, acknowledging without effect",
			"action", payload.Action,
			"issue", payload.Issue.Number,
			"error", err,
		)
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "malformed_payload"})
		return p.result(http.StatusAccepted, ResponseAccepted, core.CategoryIssues, payload.Action), nil
	}

	if err := p.Handler.HandleIssueEvent(ctx, event); err != nil {
		p.log("issue event processing failed, acknowledging for later replay",
			"action", string(event.Action),
			"issue", event.IssueNumber,
			"error", err,
		)
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "processing_failed"})
		return p.result(http.StatusAccepted, ResponseAccepted, core.CategoryIssues, payload.Action), nil
	}

	p.count(ctx, "webhooks.processed", map[string]string{"category": "issues", "action": payload.Action})
	return p.result(http.StatusOK, ResponseProcessed, core.CategoryIssues, payload.Action), nil
}

func (p *Processor) processLifecycle(ctx context.Context, category core.EventCategory, req core.InboundRequest) (core.InboundResult, error) {
	payload, err := ParseLifecyclePayload(req.Body)
	if err != nil {
		p.log("malformed lifecycle payload, acknowledging without effect",
			"category", string(category),
			"error", err,
		)
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "malformed_payload"})
		return p.result(http.StatusAccepted, ResponseAccepted, category, ""), nil
	}

	if !p.Classifier.DesirableLifecycleAction(payload.Action) {
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "undesirable_action"})
		return p.result(http.StatusAccepted, ResponseAccepted, category, payload.Action), nil
	}

	event, err := p.Extractor.LifecycleEvent(category, payload)
	if err != nil {
		p.log("lifecycle payload missing required members, acknowledging without effect",
			"category", string(category),
			"action", payload.Action,
			"error", err,
		)
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "malformed_payload"})
		return p.result(http.StatusAccepted, ResponseAccepted, category, payload.Action), nil
	}

	if err := p.Handler.HandleLifecycleEvent(ctx, event); err != nil {
		p.log("lifecycle event processing failed, acknowledging for later replay",
			"category", string(category),
			"action", event.Action,
			"name", event.Name,
			"error", err,
		)
		p.count(ctx, "webhooks.acknowledged", map[string]string{"reason": "processing_failed"})
		return p.result(http.StatusAccepted, ResponseAccepted, category, payload.Action), nil
	}

	p.count(ctx, "webhooks.processed", map[string]string{"category": string(category), "action": payload.Action})
	return p.result(http.StatusOK, ResponseProcessed, category, payload.Action), nil
}

func (p *Processor) result(status int, body string, category core.EventCategory, action string) core.InboundResult {
	metadata := map[string]any{"category": string(category)}
	if action != "" {
		metadata["action"] = action
	}
	return core.InboundResult{
		Accepted:   true,
		StatusCode: status,
		Body:       body,
		Metadata:   metadata,
	}
}

func (p *Processor) log(message string, args ...any) {
	if p != nil && p.Logger != nil {
		p.Logger.Warn(message, args...)
	}
}

func (p *Processor) count(ctx context.Context, name string, tags map[string]string) {
	if p != nil && p.Metrics != nil {
		p.Metrics.IncCounter(ctx, name, 1, tags)
	}
}
