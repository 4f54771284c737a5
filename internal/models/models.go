// package models defines the data model for the practice log service
package models

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/practicelog/internal/shared"
)

// MaxUserNameLength is the longest user name a [User] may have, counted in characters.
const MaxUserNameLength = 100

// Repository defines the data access operations shared by every entity.
// F is the entity's filter type; all of its set fields are ANDed.
type Repository[T any, F any] interface {
	Insert(ctx context.Context, model *T) (*T, error) // Insert persists model and returns the stored row including its generated id
	Select(ctx context.Context, filter F) ([]*T, error) // Select returns every row matching filter
	Delete(ctx context.Context, filter F) (int64, error) // Delete removes every row matching filter and returns the count
}

// User is an account that owns practice sessions.
type User struct {
	UserID       int64  `json:"user_id"`
	UserName     string `json:"user_name"`
	PasswordHash string `json:"-"`
}

// Validate checks the user name length and presence of both credentials.
func (u *User) Validate() error {
	switch {
	case strings.TrimSpace(u.UserName) == "":
		return shared.ClientError("User name is required")
	case utf8.RuneCountInString(u.UserName) > MaxUserNameLength:
		return shared.ClientError("User name too long")
	case u.PasswordHash == "":
		return shared.ClientError("Password is required")
	}
	return nil
}

// Piece is a catalog entry. Pieces are global and not owned by any user.
type Piece struct {
	PieceID  int64  `json:"piece_id"`
	Title    string `json:"title"`
	Composer string `json:"composer"`
}

func (p *Piece) Validate() error {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Composer) == "" {
		return shared.ClientError("Title and composer are required")
	}
	return nil
}

// PracticeSession is a block of practice time logged by its owner.
type PracticeSession struct {
	PracticeSessionID int64     `json:"practice_session_id"`
	StartDatetime     time.Time `json:"start_datetime"`
	DurationMins      int       `json:"duration_mins"`
	Instrument        string    `json:"instrument"`
	UserID            int64     `json:"user_id"`
}

func (s *PracticeSession) Validate() error {
	switch {
	case s.DurationMins < 0:
		return shared.ClientError("Invalid practice session duration")
	case s.StartDatetime.IsZero():
		return shared.ClientError("Invalid practice session start time")
	case strings.TrimSpace(s.Instrument) == "":
		return shared.ClientError("Instrument is required")
	}
	return nil
}

// PieceLink records that a piece was practiced during a practice session.
// Ownership is inherited from the session.
type PieceLink struct {
	PracticeSessionID int64 `json:"practice_session_id"`
	PieceID           int64 `json:"piece_id"`
}

// PracticeSessionWithPieces is a practice session with the full rows of the pieces practiced in it.
type PracticeSessionWithPieces struct {
	PracticeSession
	PiecesPracticed []*Piece `json:"pieces_practiced"`
}

// UserFilter selects users.
type UserFilter struct {
	UserID   *int64
	UserName string
}

// IsEmpty reports whether no field is set.
func (f UserFilter) IsEmpty() bool {
	return f.UserID == nil && f.UserName == ""
}

// PieceFilter selects pieces. Title and Composer match case-insensitive substrings.
type PieceFilter struct {
	PieceID  *int64
	Title    string
	Composer string
}

func (f PieceFilter) IsEmpty() bool {
	return f.PieceID == nil && f.Title == "" && f.Composer == ""
}

// PracticeSessionFilter selects practice sessions. Ranges are inclusive.
type PracticeSessionFilter struct {
	UserID            *int64
	PracticeSessionID *int64
	MinStart          *time.Time
	MaxStart          *time.Time
	MinDuration       *int
	MaxDuration       *int
	Instrument        string
}

func (f PracticeSessionFilter) IsEmpty() bool {
	return f.UserID == nil && f.PracticeSessionID == nil &&
		f.MinStart == nil && f.MaxStart == nil &&
		f.MinDuration == nil && f.MaxDuration == nil &&
		f.Instrument == ""
}

// LinkFilter selects piece links. PracticeSessionIDs matches any of the listed sessions.
type LinkFilter struct {
	PracticeSessionID  *int64
	PieceID            *int64
	PracticeSessionIDs []int64
}

func (f LinkFilter) IsEmpty() bool {
	return f.PracticeSessionID == nil && f.PieceID == nil && len(f.PracticeSessionIDs) == 0
}

// Ptr returns a pointer to v, for populating optional filter fields.
func Ptr[T any](v T) *T {
	return &v
}
