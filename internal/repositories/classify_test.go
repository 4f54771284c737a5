package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/practicelog/internal/shared"
)

func TestClassify(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.Exec("INSERT INTO pieces (title, composer) VALUES ('Nocturne', 'Chopin')"); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	_, uniqueErr := db.Exec("INSERT INTO pieces (title, composer) VALUES ('Nocturne', 'Chopin')")
	_, fkErr := db.Exec("INSERT INTO pieces_practiced (practice_session_id, piece_id) VALUES (1, 1)")
	_, checkErr := db.Exec("INSERT INTO practice_sessions (start_datetime, duration_mins, instrument, user_id) VALUES ('2024-01-01T10:00:00', -5, 'viola', 1)")
	_, notNullErr := db.Exec("INSERT INTO pieces (title) VALUES ('Untitled')")
	_, syntaxErr := db.Exec("SELEC nonsense")

	rules := Rules{Conflict: "dup", ForeignKey: "fk", Check: "check", NotFound: "missing"}

	tt := []struct {
		name    string
		err     error
		kind    shared.Kind
		message string
	}{
		{name: "unique", err: uniqueErr, kind: shared.KindConflict, message: "dup"},
		{name: "wrapped unique", err: fmt.Errorf("insert: %w", uniqueErr), kind: shared.KindConflict, message: "dup"},
		{name: "foreign key", err: fkErr, kind: shared.KindClient, message: "fk"},
		{name: "check", err: checkErr, kind: shared.KindClient, message: "check"},
		{name: "not null", err: notNullErr, kind: shared.KindClient, message: "check"},
		{name: "no rows", err: sql.ErrNoRows, kind: shared.KindNotFound, message: "missing"},
		{name: "already classified", err: shared.Forbidden("nope"), kind: shared.KindForbidden, message: "nope"},
		{name: "syntax", err: syntaxErr, kind: shared.KindBackend, message: "Server error"},
		{name: "other", err: errors.New("connection reset"), kind: shared.KindBackend, message: "Server error"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err == nil {
				t.Fatal("expected the statement to fail")
			}
			assertKind(t, Classify(tc.err, rules), tc.kind, tc.message)
		})
	}

	t.Run("nil", func(t *testing.T) {
		if Classify(nil, rules) != nil {
			t.Error("nil error should stay nil")
		}
	})

	t.Run("fallback messages", func(t *testing.T) {
		assertKind(t, Classify(uniqueErr, Rules{}), shared.KindConflict, "Entry already exists")
		assertKind(t, Classify(sql.ErrNoRows, Rules{}), shared.KindNotFound, "Not found")
	})

	t.Run("cause preserved", func(t *testing.T) {
		if !errors.Is(Classify(sql.ErrNoRows, rules), sql.ErrNoRows) {
			t.Error("classified error should unwrap to its cause")
		}
	})
}
