// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T, F] for a specific entity type
// and classifies every storage failure before returning it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/shared"
)

var (
	_ models.Repository[models.User, models.UserFilter]                       = (*UserRepository)(nil)
	_ models.Repository[models.Piece, models.PieceFilter]                     = (*PieceRepository)(nil)
	_ models.Repository[models.PracticeSession, models.PracticeSessionFilter] = (*PracticeSessionRepository)(nil)
	_ models.Repository[models.PieceLink, models.LinkFilter]                  = (*PieceLinkRepository)(nil)
)

// DBTX is the subset of [sql.DB] and [sql.Tx] the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db *sql.DB

	Users    *UserRepository
	Pieces   *PieceRepository
	Sessions *PracticeSessionRepository
	Links    *PieceLinkRepository
}

// NewStore creates a [Store] whose repositories run directly against db.
func NewStore(db *sql.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(q DBTX) *Store {
	return &Store{
		Users:    NewUserRepository(q),
		Pieces:   NewPieceRepository(q),
		Sessions: NewPracticeSessionRepository(q),
		Links:    NewPieceLinkRepository(q),
	}
}

// WithTx runs fn with a [Store] bound to a single transaction.
//
// The transaction commits when fn returns nil and rolls back otherwise.
// Calling WithTx on a Store that is already transactional runs fn in the same transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return shared.BackendError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(newStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return shared.BackendError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// conditions accumulates ANDed WHERE clauses and their arguments.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, args ...any) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

// in adds "column IN (?, ...)" for ids. An empty list matches nothing.
func (c *conditions) in(column string, ids []int64) {
	if len(ids) == 0 {
		c.add("0")
		return
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	c.add(column+" IN ("+placeholders+")", args...)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// emptyFilter is returned by Delete when the filter constrains nothing.
func emptyFilter() error {
	return &shared.Error{Kind: shared.KindClient, Message: "A filter is required to delete", Err: shared.ErrEmptyFilter}
}

// dbTime is the stored form of a timestamp: second precision, UTC, naive layout.
func dbTime(t time.Time) string {
	return shared.FormatTimestamp(t)
}

// timestamp scans a stored datetime whether the driver returns it parsed or as text.
type timestamp struct {
	time.Time
}

func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		ts.Time = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (ts *timestamp) parse(v string) error {
	t, err := shared.ParseTimestamp(v)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

func deleted(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, shared.BackendError(fmt.Errorf("failed to get affected rows: %w", err))
	}
	return n, nil
}
