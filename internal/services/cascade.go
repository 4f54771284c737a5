package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/repositories"
	"github.com/desertthunder/practicelog/internal/shared"
)

// LinkPolicy decides what happens to a new practice session when one of its piece links fails.
type LinkPolicy string

const (
	// LinkPolicyPartial keeps the session and every link that succeeded, and reports the rest.
	LinkPolicyPartial LinkPolicy = "partial"
	// LinkPolicyAtomic rolls back the session and all links on the first failure.
	LinkPolicyAtomic LinkPolicy = "atomic"
)

// ParseLinkPolicy accepts "partial", "atomic" or "" (partial).
func ParseLinkPolicy(value string) (LinkPolicy, error) {
	switch LinkPolicy(value) {
	case "", LinkPolicyPartial:
		return LinkPolicyPartial, nil
	case LinkPolicyAtomic:
		return LinkPolicyAtomic, nil
	default:
		return "", fmt.Errorf("%w: unknown link policy %q", shared.ErrInvalidConfig, value)
	}
}

// SessionFields are the caller-supplied fields of a new practice session.
type SessionFields struct {
	StartDatetime time.Time
	DurationMins  int
	Instrument    string
}

// RejectedLink is a piece link that could not be created under [LinkPolicyPartial].
type RejectedLink struct {
	PieceID int64  `json:"piece_id"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

// SessionCreateResult is the outcome of [PracticeService.CreateSessionWithLinks].
type SessionCreateResult struct {
	Session  *models.PracticeSession `json:"practice_session"`
	Links    []*models.PieceLink     `json:"pieces_practiced"`
	Rejected []RejectedLink          `json:"rejected_pieces"`
}

// DeleteResult reports how many rows a cascading delete removed from each table.
type DeleteResult struct {
	DeletedSessionCount int64 `json:"deleted_session_count"`
	DeletedLinkCount    int64 `json:"deleted_link_count"`
}

// CreateSessionWithLinks inserts a practice session owned by ownerID, then one link per piece id,
// in a single transaction.
//
// Under [LinkPolicyPartial] a failed link is recorded in Rejected and the rest of the work commits.
// SQLite rolls back only the failing statement, so the transaction stays usable.
// Under [LinkPolicyAtomic] the first failure aborts everything and is returned.
func (s *PracticeService) CreateSessionWithLinks(ctx context.Context, ownerID int64, fields SessionFields, pieceIDs []int64) (*SessionCreateResult, error) {
	result := &SessionCreateResult{
		Links:    []*models.PieceLink{},
		Rejected: []RejectedLink{},
	}

	err := s.store.WithTx(ctx, func(tx *repositories.Store) error {
		session, err := tx.Sessions.Insert(ctx, &models.PracticeSession{
			StartDatetime: fields.StartDatetime,
			DurationMins:  fields.DurationMins,
			Instrument:    fields.Instrument,
			UserID:        ownerID,
		})
		if err != nil {
			return err
		}
		result.Session = session

		for _, pieceID := range pieceIDs {
			link, err := tx.Links.Insert(ctx, &models.PieceLink{
				PracticeSessionID: session.PracticeSessionID,
				PieceID:           pieceID,
			})
			if err == nil {
				result.Links = append(result.Links, link)
				continue
			}

			appErr := shared.AsError(err)
			if s.policy == LinkPolicyAtomic || appErr.Kind == shared.KindBackend {
				return err
			}
			result.Rejected = append(result.Rejected, RejectedLink{
				PieceID: pieceID,
				Kind:    appErr.Kind.String(),
				Error:   appErr.Message,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Rejected) > 0 {
		s.logger.Warn("practice session created with rejected pieces",
			"practice_session_id", result.Session.PracticeSessionID,
			"linked", len(result.Links),
			"rejected", len(result.Rejected))
	}
	return result, nil
}

// DeleteSessionCascade removes a practice session owned by ownerID together with its links.
//
// Ownership is verified inside the transaction, links are deleted before the session,
// and nothing is deleted when the session is missing or belongs to someone else.
func (s *PracticeService) DeleteSessionCascade(ctx context.Context, ownerID, sessionID int64) (*DeleteResult, error) {
	result := &DeleteResult{}

	err := s.store.WithTx(ctx, func(tx *repositories.Store) error {
		id, err := verifyOwnsSession(ctx, tx, ownerID, sessionID)
		if err != nil {
			return err
		}

		links, err := tx.Links.Delete(ctx, models.LinkFilter{PracticeSessionID: &id})
		if err != nil {
			return err
		}

		sessions, err := tx.Sessions.Delete(ctx, models.PracticeSessionFilter{
			PracticeSessionID: &id,
			UserID:            &ownerID,
		})
		if err != nil {
			return err
		}

		result.DeletedLinkCount = links
		result.DeletedSessionCount = sessions
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("deleted practice session",
		"practice_session_id", sessionID,
		"links", result.DeletedLinkCount)
	return result, nil
}
