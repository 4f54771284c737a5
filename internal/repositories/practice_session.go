package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/practicelog/internal/models"
)

var sessionRules = Rules{
	Conflict:   "A practice session at that time already exists",
	ForeignKey: "Practice session still has pieces practiced",
	Check:      "Invalid practice session duration",
	NotFound:   "Practice session not found",
}

// PracticeSessionRepository implements [models.Repository] for [models.PracticeSession] persistence.
//
// It does not know about authentication: callers scope reads and deletes by setting UserID on the filter.
type PracticeSessionRepository struct {
	db DBTX
}

// NewPracticeSessionRepository creates a new [PracticeSessionRepository] with the given database connection
func NewPracticeSessionRepository(db DBTX) *PracticeSessionRepository {
	return &PracticeSessionRepository{db: db}
}

// Insert stores a new practice session. A user cannot have two sessions with the same start time.
func (r *PracticeSessionRepository) Insert(ctx context.Context, session *models.PracticeSession) (*models.PracticeSession, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO practice_sessions (start_datetime, duration_mins, instrument, user_id)
		VALUES (?, ?, ?, ?)
		RETURNING practice_session_id, start_datetime, duration_mins, instrument, user_id
	`

	row := r.db.QueryRowContext(ctx, query,
		dbTime(session.StartDatetime), session.DurationMins, session.Instrument, session.UserID)

	created, err := r.scan(row)
	if err != nil {
		// The only foreign key on insert is the owner.
		return nil, Classify(err, Rules{
			Conflict:   sessionRules.Conflict,
			ForeignKey: "User not found",
			Check:      sessionRules.Check,
		})
	}
	return created, nil
}

// OwnedBy returns id when the practice session exists and belongs to userID.
//
// Both conditions are checked in one predicate, so a missing session and another user's
// session produce the same not found error.
func (r *PracticeSessionRepository) OwnedBy(ctx context.Context, userID, id int64) (int64, error) {
	query := `SELECT practice_session_id FROM practice_sessions WHERE practice_session_id = ? AND user_id = ?`

	var found int64
	if err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&found); err != nil {
		return 0, Classify(err, sessionRules)
	}
	return found, nil
}

// Select retrieves practice sessions matching filter, ordered by start time.
func (r *PracticeSessionRepository) Select(ctx context.Context, filter models.PracticeSessionFilter) ([]*models.PracticeSession, error) {
	where := r.conditions(filter)
	query := `
		SELECT practice_session_id, start_datetime, duration_mins, instrument, user_id
		FROM practice_sessions` + where.where() + `
		ORDER BY start_datetime ASC, practice_session_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, Classify(fmt.Errorf("failed to query practice sessions: %w", err), sessionRules)
	}
	defer rows.Close()

	sessions := []*models.PracticeSession{}
	for rows.Next() {
		session, err := r.scan(rows)
		if err != nil {
			return nil, Classify(err, sessionRules)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, Classify(fmt.Errorf("row iteration error: %w", err), sessionRules)
	}

	return sessions, nil
}

// Delete removes the practice sessions matching filter.
//
// Links must be removed first. A session that still has links is not deleted and the
// violation is reported as a client error.
func (r *PracticeSessionRepository) Delete(ctx context.Context, filter models.PracticeSessionFilter) (int64, error) {
	if filter.IsEmpty() {
		return 0, emptyFilter()
	}

	where := r.conditions(filter)
	result, err := r.db.ExecContext(ctx, `DELETE FROM practice_sessions`+where.where(), where.args...)
	if err != nil {
		return 0, Classify(err, sessionRules)
	}
	return deleted(result)
}

func (r *PracticeSessionRepository) conditions(filter models.PracticeSessionFilter) *conditions {
	c := &conditions{}
	if filter.UserID != nil {
		c.add("user_id = ?", *filter.UserID)
	}
	if filter.PracticeSessionID != nil {
		c.add("practice_session_id = ?", *filter.PracticeSessionID)
	}
	if filter.MinStart != nil {
		c.add("start_datetime >= ?", dbTime(*filter.MinStart))
	}
	if filter.MaxStart != nil {
		c.add("start_datetime <= ?", dbTime(*filter.MaxStart))
	}
	if filter.MinDuration != nil {
		c.add("duration_mins >= ?", *filter.MinDuration)
	}
	if filter.MaxDuration != nil {
		c.add("duration_mins <= ?", *filter.MaxDuration)
	}
	if filter.Instrument != "" {
		c.add("instrument = ?", filter.Instrument)
	}
	return c
}

// scan reads one row into a [models.PracticeSession]
func (r *PracticeSessionRepository) scan(row scanner) (*models.PracticeSession, error) {
	var (
		session models.PracticeSession
		start   timestamp
	)

	if err := row.Scan(&session.PracticeSessionID, &start, &session.DurationMins, &session.Instrument, &session.UserID); err != nil {
		return nil, err
	}

	session.StartDatetime = start.Time
	return &session, nil
}
