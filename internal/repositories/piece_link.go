package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/practicelog/internal/models"
)

// By the time a link is inserted its practice session has passed the ownership check,
// so a remaining foreign key failure is attributed to the piece.
var linkRules = Rules{
	Conflict:   "Entry already exists",
	ForeignKey: "Piece not found",
	NotFound:   "Entry not found",
}

// PieceLinkRepository implements [models.Repository] for the pieces_practiced association table.
type PieceLinkRepository struct {
	db DBTX
}

// NewPieceLinkRepository creates a new [PieceLinkRepository] with the given database connection
func NewPieceLinkRepository(db DBTX) *PieceLinkRepository {
	return &PieceLinkRepository{db: db}
}

// Insert records that a piece was practiced in a practice session.
// Duplicate links are conflicts and both referenced rows must exist.
func (r *PieceLinkRepository) Insert(ctx context.Context, link *models.PieceLink) (*models.PieceLink, error) {
	query := `
		INSERT INTO pieces_practiced (practice_session_id, piece_id) VALUES (?, ?)
		RETURNING practice_session_id, piece_id
	`

	var created models.PieceLink
	err := r.db.QueryRowContext(ctx, query, link.PracticeSessionID, link.PieceID).
		Scan(&created.PracticeSessionID, &created.PieceID)
	if err != nil {
		return nil, Classify(err, linkRules)
	}
	return &created, nil
}

// Select retrieves links matching filter.
func (r *PieceLinkRepository) Select(ctx context.Context, filter models.LinkFilter) ([]*models.PieceLink, error) {
	where := r.conditions(filter)
	query := `SELECT practice_session_id, piece_id FROM pieces_practiced` + where.where() +
		` ORDER BY practice_session_id ASC, piece_id ASC`

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, Classify(fmt.Errorf("failed to query pieces practiced: %w", err), linkRules)
	}
	defer rows.Close()

	links := []*models.PieceLink{}
	for rows.Next() {
		var link models.PieceLink
		if err := rows.Scan(&link.PracticeSessionID, &link.PieceID); err != nil {
			return nil, Classify(err, linkRules)
		}
		links = append(links, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, Classify(fmt.Errorf("row iteration error: %w", err), linkRules)
	}

	return links, nil
}

// Delete removes the links matching filter.
func (r *PieceLinkRepository) Delete(ctx context.Context, filter models.LinkFilter) (int64, error) {
	if filter.IsEmpty() {
		return 0, emptyFilter()
	}

	where := r.conditions(filter)
	result, err := r.db.ExecContext(ctx, `DELETE FROM pieces_practiced`+where.where(), where.args...)
	if err != nil {
		return 0, Classify(err, linkRules)
	}
	return deleted(result)
}

// PiecesForSessions returns the full piece rows practiced in each of the given sessions, keyed by
// practice session id. Sessions without links are absent from the map.
func (r *PieceLinkRepository) PiecesForSessions(ctx context.Context, sessionIDs []int64) (map[int64][]*models.Piece, error) {
	result := make(map[int64][]*models.Piece)
	if len(sessionIDs) == 0 {
		return result, nil
	}

	where := &conditions{}
	where.in("pp.practice_session_id", sessionIDs)
	query := `
		SELECT pp.practice_session_id, p.piece_id, p.title, p.composer
		FROM pieces_practiced pp
		JOIN pieces p ON p.piece_id = pp.piece_id` + where.where() + `
		ORDER BY pp.practice_session_id ASC, p.piece_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, Classify(fmt.Errorf("failed to query pieces practiced: %w", err), linkRules)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sessionID int64
			piece     models.Piece
		)
		if err := rows.Scan(&sessionID, &piece.PieceID, &piece.Title, &piece.Composer); err != nil {
			return nil, Classify(err, linkRules)
		}
		result[sessionID] = append(result[sessionID], &piece)
	}

	if err := rows.Err(); err != nil {
		return nil, Classify(fmt.Errorf("row iteration error: %w", err), linkRules)
	}

	return result, nil
}

func (r *PieceLinkRepository) conditions(filter models.LinkFilter) *conditions {
	c := &conditions{}
	if filter.PracticeSessionID != nil {
		c.add("practice_session_id = ?", *filter.PracticeSessionID)
	}
	if filter.PieceID != nil {
		c.add("piece_id = ?", *filter.PieceID)
	}
	if len(filter.PracticeSessionIDs) > 0 {
		c.in("practice_session_id", filter.PracticeSessionIDs)
	}
	return c
}
