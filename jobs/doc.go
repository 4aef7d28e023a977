// Package jobs holds the background work that runs outside the webhook
// request path: the daily totals rollup and the queue runner that executes
// enqueued job messages.
package jobs
