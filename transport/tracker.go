package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-issue-metrics/core"
)

const defaultTrackerTimeout = 15 * time.Second

// TrackerClient reads repository stats from the issue tracker's REST API.
// The rollup jobs use it to cross-check locally derived counts.
type TrackerClient struct {
	adapter   core.TransportAdapter
	repoURL   string
	userAgent string
	timeout   time.Duration
}

func NewTrackerClient(adapter core.TransportAdapter, repoURL string) (*TrackerClient, error) {
	if adapter == nil {
		return nil, fmt.Errorf("transport: transport adapter is required")
	}
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return nil, fmt.Errorf("transport: tracker repository url is required")
	}
	return &TrackerClient{
		adapter:   adapter,
		repoURL:   repoURL,
		userAgent: "go-issue-metrics",
		timeout:   defaultTrackerTimeout,
	}, nil
}

func (c *TrackerClient) WithUserAgent(userAgent string) *TrackerClient {
	if strings.TrimSpace(userAgent) != "" {
		c.userAgent = strings.TrimSpace(userAgent)
	}
	return c
}

// OpenIssueCount fetches the tracker's own open issue total.
func (c *TrackerClient) OpenIssueCount(ctx context.Context) (int, error) {
	if c == nil || c.adapter == nil {
		return 0, transportError(
			"transport: tracker client is not configured",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}

	res, err := c.adapter.Do(ctx, core.TransportRequest{
		Method: http.MethodGet,
		URL:    c.repoURL,
		Headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": c.userAgent,
		},
		Timeout: c.timeout,
	})
	if err != nil {
		return 0, err
	}
	if res.StatusCode != http.StatusOK {
		return 0, transportError(
			fmt.Sprintf("transport: tracker responded with status %d", res.StatusCode),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": res.StatusCode, "url": c.repoURL},
		)
	}

	var payload struct {
		OpenIssues *int `json:"open_issues"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return 0, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode tracker response",
			http.StatusBadGateway,
			map[string]any{"url": c.repoURL},
		)
	}
	if payload.OpenIssues == nil {
		return 0, transportError(
			"transport: tracker response missing open_issues",
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"url": c.repoURL},
		)
	}
	return *payload.OpenIssues, nil
}
