package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/practicelog/internal/models"
)

var pieceRules = Rules{
	Conflict:   "That piece is already registered in the database",
	ForeignKey: "Piece is still referenced by a practice session",
	NotFound:   "Piece not found",
}

// PieceRepository implements [models.Repository] for the shared [models.Piece] catalog.
type PieceRepository struct {
	db DBTX
}

// NewPieceRepository creates a new [PieceRepository] with the given database connection
func NewPieceRepository(db DBTX) *PieceRepository {
	return &PieceRepository{db: db}
}

// Insert stores a new catalog entry. (title, composer) must be unique, compared case-sensitively.
func (r *PieceRepository) Insert(ctx context.Context, piece *models.Piece) (*models.Piece, error) {
	if err := piece.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO pieces (title, composer) VALUES (?, ?)
		RETURNING piece_id, title, composer
	`

	created, err := r.scan(r.db.QueryRowContext(ctx, query, piece.Title, piece.Composer))
	if err != nil {
		return nil, Classify(err, pieceRules)
	}
	return created, nil
}

// Select retrieves pieces matching filter.
//
// Title and Composer match any piece whose field contains the value, ignoring case.
func (r *PieceRepository) Select(ctx context.Context, filter models.PieceFilter) ([]*models.Piece, error) {
	where := r.conditions(filter)
	query := `SELECT piece_id, title, composer FROM pieces` + where.where() + ` ORDER BY piece_id ASC`

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, Classify(fmt.Errorf("failed to query pieces: %w", err), pieceRules)
	}
	defer rows.Close()

	pieces := []*models.Piece{}
	for rows.Next() {
		piece, err := r.scan(rows)
		if err != nil {
			return nil, Classify(err, pieceRules)
		}
		pieces = append(pieces, piece)
	}

	if err := rows.Err(); err != nil {
		return nil, Classify(fmt.Errorf("row iteration error: %w", err), pieceRules)
	}

	return pieces, nil
}

// Delete removes the pieces matching filter. Pieces still linked to a practice session are kept
// and the foreign key violation is reported as a client error.
func (r *PieceRepository) Delete(ctx context.Context, filter models.PieceFilter) (int64, error) {
	if filter.IsEmpty() {
		return 0, emptyFilter()
	}

	where := r.conditions(filter)
	result, err := r.db.ExecContext(ctx, `DELETE FROM pieces`+where.where(), where.args...)
	if err != nil {
		return 0, Classify(err, pieceRules)
	}
	return deleted(result)
}

func (r *PieceRepository) conditions(filter models.PieceFilter) *conditions {
	c := &conditions{}
	if filter.PieceID != nil {
		c.add("piece_id = ?", *filter.PieceID)
	}
	if filter.Title != "" {
		c.add("instr(casefold(title), casefold(?)) > 0", filter.Title)
	}
	if filter.Composer != "" {
		c.add("instr(casefold(composer), casefold(?)) > 0", filter.Composer)
	}
	return c
}

// scan reads one row into a [models.Piece]
func (r *PieceRepository) scan(row scanner) (*models.Piece, error) {
	var piece models.Piece
	if err := row.Scan(&piece.PieceID, &piece.Title, &piece.Composer); err != nil {
		return nil, err
	}
	return &piece, nil
}
