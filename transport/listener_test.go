package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-issue-metrics/core"
)

type stubProcessor struct {
	result core.InboundResult
	err    error
	last   core.InboundRequest
	calls  int
}

func (s *stubProcessor) Process(_ context.Context, req core.InboundRequest) (core.InboundResult, error) {
	s.calls++
	s.last = req
	return s.result, s.err
}

func TestWebhookListener_ForwardsRequestAndWritesResult(t *testing.T) {
	processor := &stubProcessor{result: core.InboundResult{Accepted: true, StatusCode: 200, Body: "processed"}}
	listener := NewWebhookListener(processor)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracker", strings.NewReader(`{"action":"opened"}`))
	req.Header.Set("X-GitHub-Event", "issues")
	req.Header.Set("X-Hub-Signature", "sha1=abc")
	recorder := httptest.NewRecorder()

	listener.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if recorder.Body.String() != "processed" {
		t.Fatalf("expected processed body, got %q", recorder.Body.String())
	}
	if processor.calls != 1 {
		t.Fatalf("expected single processor call, got %d", processor.calls)
	}
	if processor.last.Headers["X-Github-Event"] != "issues" {
		t.Fatalf("expected category header forwarded, got %v", processor.last.Headers)
	}
	if string(processor.last.Body) != `{"action":"opened"}` {
		t.Fatalf("expected raw body forwarded, got %q", processor.last.Body)
	}
}

func TestWebhookListener_WritesRejectionStatus(t *testing.T) {
	processor := &stubProcessor{
		result: core.InboundResult{Accepted: false, StatusCode: 403, Body: "forbidden"},
		err:    errors.New("signature mismatch"),
	}
	listener := NewWebhookListener(processor)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracker", strings.NewReader("{}"))
	recorder := httptest.NewRecorder()
	listener.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	if recorder.Body.String() != "forbidden" {
		t.Fatalf("expected opaque forbidden body, got %q", recorder.Body.String())
	}
	if strings.Contains(recorder.Body.String(), "signature") {
		t.Fatalf("diagnostic detail leaked into response body")
	}
}

func TestWebhookListener_RejectsNonPost(t *testing.T) {
	listener := NewWebhookListener(&stubProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/tracker", nil)
	recorder := httptest.NewRecorder()
	listener.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if recorder.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected Allow header, got %q", recorder.Header().Get("Allow"))
	}
}

func TestWebhookListener_RejectsOversizedBody(t *testing.T) {
	processor := &stubProcessor{}
	listener := NewWebhookListener(processor).WithBodyLimit(16)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracker", strings.NewReader(strings.Repeat("a", 64)))
	recorder := httptest.NewRecorder()
	listener.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", recorder.Code)
	}
	if processor.calls != 0 {
		t.Fatalf("expected processor skipped for oversized body")
	}
}
