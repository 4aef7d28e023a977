package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	MetricsErrorAuthFailed          = "METRICS_AUTH_FAILED"
	MetricsErrorBadPayload          = "METRICS_BAD_PAYLOAD"
	MetricsErrorBadInput            = "METRICS_BAD_INPUT"
	MetricsErrorNotFound            = "METRICS_NOT_FOUND"
	MetricsErrorUnresolvedReference = "METRICS_UNRESOLVED_REFERENCE"
	MetricsErrorPersistenceFailed   = "METRICS_PERSISTENCE_FAILED"
	MetricsErrorExternalFailure     = "METRICS_EXTERNAL_FAILURE"
	MetricsErrorInternal            = "METRICS_INTERNAL_ERROR"
)

// MetricsErrorMapper normalizes any error into a categorized envelope so the
// transport layer can translate it to a status code without string matching.
func MetricsErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureMetricsErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"), strings.Contains(msg, "not the hook"):
		return newMetricsError(err.Error(), goerrors.CategoryAuth, MetricsErrorAuthFailed)
	case strings.Contains(msg, "not found"):
		return newMetricsError(err.Error(), goerrors.CategoryNotFound, MetricsErrorNotFound)
	case strings.Contains(msg, "parse"), strings.Contains(msg, "unmarshal"), strings.Contains(msg, "payload"):
		return newMetricsError(err.Error(), goerrors.CategoryBadInput, MetricsErrorBadPayload)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newMetricsError(err.Error(), goerrors.CategoryBadInput, MetricsErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureMetricsErrorEnvelope(mapped)
}

// IsNotFound reports whether err is a lookup miss from any store.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrIssueNotFound) ||
		errors.Is(err, ErrLabelNotFound) ||
		errors.Is(err, ErrMilestoneNotFound) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryNotFound
	}
	return false
}

func newMetricsError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureMetricsErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureMetricsErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = metricsHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultMetricsTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultMetricsTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return MetricsErrorBadInput
	case goerrors.CategoryNotFound:
		return MetricsErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return MetricsErrorAuthFailed
	case goerrors.CategoryOperation, goerrors.CategoryExternal:
		return MetricsErrorPersistenceFailed
	default:
		return MetricsErrorInternal
	}
}

func metricsHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
