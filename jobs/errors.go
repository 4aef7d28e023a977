package jobs

import (
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-issue-metrics/core"
)

func rollupDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.MetricsErrorInternal)
}

func rollupBadRange(from time.Time, to time.Time) error {
	return goerrors.New("jobs: rollup range end precedes start", goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.MetricsErrorBadInput).
		WithMetadata(map[string]any{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		})
}

func rollupWrap(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.MetricsErrorPersistenceFailed)
}
