package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/repositories"
	"github.com/desertthunder/practicelog/internal/shared"
)

// PracticeService implements the catalog and practice session operations.
//
// Every operation on data scoped to a practice session takes the acting user's id and passes
// through the ownership check first. User ids come from the session store, never from the request.
type PracticeService struct {
	store  *repositories.Store
	policy LinkPolicy
	logger *log.Logger
}

func NewPracticeService(store *repositories.Store, policy LinkPolicy, logger *log.Logger) *PracticeService {
	if policy == "" {
		policy = LinkPolicyPartial
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PracticeService{store: store, policy: policy, logger: shared.WithLogger(logger, "service", "practice")}
}

// Policy returns the configured [LinkPolicy].
func (s *PracticeService) Policy() LinkPolicy {
	return s.policy
}

// ListPieces searches the shared catalog.
func (s *PracticeService) ListPieces(ctx context.Context, filter models.PieceFilter) ([]*models.Piece, error) {
	return s.store.Pieces.Select(ctx, filter)
}

// CreatePiece adds a catalog entry.
func (s *PracticeService) CreatePiece(ctx context.Context, title, composer string) (*models.Piece, error) {
	return s.store.Pieces.Insert(ctx, &models.Piece{Title: title, Composer: composer})
}

// DeletePiece removes a catalog entry that no practice session references.
func (s *PracticeService) DeletePiece(ctx context.Context, pieceID int64) (int64, error) {
	n, err := s.store.Pieces.Delete(ctx, models.PieceFilter{PieceID: &pieceID})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, shared.NotFound("Piece not found")
	}
	return n, nil
}

// ListSessions returns userID's practice sessions matching filter, each with its pieces practiced.
// Any UserID on filter is replaced with userID.
func (s *PracticeService) ListSessions(ctx context.Context, userID int64, filter models.PracticeSessionFilter) ([]*models.PracticeSessionWithPieces, error) {
	filter.UserID = &userID

	sessions, err := s.store.Sessions.Select(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(sessions))
	for i, session := range sessions {
		ids[i] = session.PracticeSessionID
	}

	pieces, err := s.store.Links.PiecesForSessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*models.PracticeSessionWithPieces, len(sessions))
	for i, session := range sessions {
		practiced := pieces[session.PracticeSessionID]
		if practiced == nil {
			practiced = []*models.Piece{}
		}
		result[i] = &models.PracticeSessionWithPieces{PracticeSession: *session, PiecesPracticed: practiced}
	}
	return result, nil
}

// CreateLink records that a piece was practiced in one of userID's practice sessions.
func (s *PracticeService) CreateLink(ctx context.Context, userID, sessionID, pieceID int64) (*models.PieceLink, error) {
	var link *models.PieceLink

	err := s.store.WithTx(ctx, func(tx *repositories.Store) error {
		id, err := verifyOwnsSession(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}

		link, err = tx.Links.Insert(ctx, &models.PieceLink{PracticeSessionID: id, PieceID: pieceID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// DeleteLink removes a single link from one of userID's practice sessions.
func (s *PracticeService) DeleteLink(ctx context.Context, userID, sessionID, pieceID int64) (int64, error) {
	var n int64

	err := s.store.WithTx(ctx, func(tx *repositories.Store) error {
		id, err := verifyOwnsSession(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}

		n, err = tx.Links.Delete(ctx, models.LinkFilter{PracticeSessionID: &id, PieceID: &pieceID})
		if err != nil {
			return err
		}
		if n == 0 {
			return shared.NotFound("Entry not found")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
