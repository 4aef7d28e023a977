// Package gologger resolves loggers for the rollup worker and bridges them
// onto the go-job contracts.
package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// RollupWorkerLoggerName scopes worker log lines to the daily-totals rollup.
const RollupWorkerLoggerName = "metrics.jobs.rollup"

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// RollupWorkerLoggers resolves the logger pair for the daily-totals rollup
// worker and returns its go-job bridges alongside the resolved glog values.
func RollupWorkerLoggers(
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(RollupWorkerLoggerName, provider, logger)
	return resolvedProvider, resolvedLogger,
		job.GoLoggerProvider(resolvedProvider), job.GoLogger(resolvedLogger)
}
