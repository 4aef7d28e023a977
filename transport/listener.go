package transport

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-issue-metrics/core"
)

const defaultListenerBodyLimit int64 = 1 << 20 // 1 MiB

// NotificationProcessor consumes one webhook notification and reports the
// caller-visible outcome.
type NotificationProcessor interface {
	Process(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
}

// WebhookListener is the HTTP face of the notification pipeline. It converts
// requests into transport-neutral inbound requests and writes the processor's
// plain-text verdict back; rejection detail stays in the logs, never in the
// response body.
type WebhookListener struct {
	processor    NotificationProcessor
	logger       core.Logger
	maxBodyBytes int64
}

func NewWebhookListener(processor NotificationProcessor) *WebhookListener {
	return &WebhookListener{
		processor:    processor,
		maxBodyBytes: defaultListenerBodyLimit,
	}
}

func (l *WebhookListener) WithLogger(logger core.Logger) *WebhookListener {
	l.logger = logger
	return l
}

func (l *WebhookListener) WithBodyLimit(limit int64) *WebhookListener {
	if limit > 0 {
		l.maxBodyBytes = limit
	}
	return l
}

func (l *WebhookListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if l == nil || l.processor == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writePlainText(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, l.maxBodyBytes+1))
	if err != nil {
		writePlainText(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if int64(len(body)) > l.maxBodyBytes {
		writePlainText(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	req := core.InboundRequest{
		Headers: flattenHeaders(r.Header),
		Body:    body,
		Metadata: map[string]any{
			"remote_addr": r.RemoteAddr,
			"path":        r.URL.Path,
		},
	}

	result, err := l.processor.Process(r.Context(), req)
	if err != nil && l.logger != nil {
		l.logger.Warn("notification rejected",
			"status", result.StatusCode,
			"error", err,
		)
	}
	status := result.StatusCode
	if status == 0 {
		status = statusFromError(err)
	}
	responseBody := strings.TrimSpace(result.Body)
	if responseBody == "" {
		responseBody = http.StatusText(status)
	}
	writePlainText(w, status, responseBody)
}

func statusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if mapped := core.MetricsErrorMapper(err); mapped != nil && mapped.Code > 0 {
		return mapped.Code
	}
	return http.StatusInternalServerError
}

func writePlainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

var _ http.Handler = (*WebhookListener)(nil)
