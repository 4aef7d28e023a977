package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-issue-metrics/core"
)

type stubDoer struct {
	status int
	body   string
	last   *http.Request
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.last = req
	return &http.Response{
		StatusCode: d.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(d.body))),
	}, nil
}

func TestTrackerClient_OpenIssueCount(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK, body: `{"open_issues": 137, "name": "web-bugs"}`}
	client, err := NewTrackerClient(NewRESTAdapter(doer), "https://api.example.com/repos/web-bugs")
	if err != nil {
		t.Fatalf("new tracker client: %v", err)
	}

	count, err := client.OpenIssueCount(context.Background())
	if err != nil {
		t.Fatalf("open issue count: %v", err)
	}
	if count != 137 {
		t.Fatalf("expected 137 open issues, got %d", count)
	}
	if doer.last.Header.Get("User-Agent") != "go-issue-metrics" {
		t.Fatalf("expected default user agent, got %q", doer.last.Header.Get("User-Agent"))
	}
}

func TestTrackerClient_NonOKStatusIsExternalFailure(t *testing.T) {
	doer := &stubDoer{status: http.StatusBadGateway, body: `{}`}
	client, err := NewTrackerClient(NewRESTAdapter(doer), "https://api.example.com/repos/web-bugs")
	if err != nil {
		t.Fatalf("new tracker client: %v", err)
	}

	_, err = client.OpenIssueCount(context.Background())
	if err == nil {
		t.Fatalf("expected error on upstream failure")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.MetricsErrorExternalFailure {
		t.Fatalf("expected external failure text code, got %q", rich.TextCode)
	}
}

func TestTrackerClient_MissingCountIsRejected(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK, body: `{"name": "web-bugs"}`}
	client, err := NewTrackerClient(NewRESTAdapter(doer), "https://api.example.com/repos/web-bugs")
	if err != nil {
		t.Fatalf("new tracker client: %v", err)
	}

	if _, err := client.OpenIssueCount(context.Background()); err == nil {
		t.Fatalf("expected error when open_issues is absent")
	}
}
