package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-issue-metrics/core"
)

// mapLookupErr converts driver-level misses into the canonical sentinel so
// callers can branch on core.IsNotFound without knowing the dialect.
func mapLookupErr(err error, sentinel error, subject string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlstore: %s: %w", subject, sentinel)
	}
	return fmt.Errorf("sqlstore: load %s: %w", subject, err)
}

// isUniqueViolation matches the dialect-specific duplicate key errors for
// postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed")
}

func mapCreateErr(err error, subject string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("sqlstore: %s: %w", subject, core.ErrDuplicateName)
	}
	return fmt.Errorf("sqlstore: create %s: %w", subject, err)
}
