package repositories

import (
	"database/sql"
	"errors"

	"github.com/desertthunder/practicelog/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// Rules names the caller-facing message for each constraint a statement can violate.
// Empty fields fall back to generic messages.
type Rules struct {
	Conflict   string // unique or primary key violation
	ForeignKey string // referenced row missing, or row still referenced
	Check      string // CHECK or NOT NULL violation
	NotFound   string // no row for a single-row lookup
}

const (
	defaultConflict   = "Entry already exists"
	defaultForeignKey = "Referenced entry not found"
	defaultCheck      = "Invalid value"
	defaultNotFound   = "Not found"
)

// Classify maps a storage error onto the [shared.Error] taxonomy.
//
// Errors that are already classified pass through unchanged. Anything that is not a
// recognised constraint violation or a missing row becomes a backend error.
func Classify(err error, rules Rules) error {
	if err == nil {
		return nil
	}

	var appErr *shared.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, sql.ErrNoRows) {
		return classified(shared.KindNotFound, rules.NotFound, defaultNotFound, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return classified(shared.KindConflict, rules.Conflict, defaultConflict, err)
		case sqlite3.ErrConstraintForeignKey:
			return classified(shared.KindClient, rules.ForeignKey, defaultForeignKey, err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return classified(shared.KindClient, rules.Check, defaultCheck, err)
		}
	}

	return shared.BackendError(err)
}

func classified(kind shared.Kind, msg, fallback string, cause error) *shared.Error {
	if msg == "" {
		msg = fallback
	}
	return &shared.Error{Kind: kind, Message: msg, Err: cause}
}
