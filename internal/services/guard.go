package services

import (
	"context"

	"github.com/desertthunder/practicelog/internal/repositories"
)

// VerifyOwnsSession confirms practice session sessionID exists and belongs to userID.
//
// A missing session and another user's session both yield the same not found error.
func (s *PracticeService) VerifyOwnsSession(ctx context.Context, userID, sessionID int64) (int64, error) {
	return verifyOwnsSession(ctx, s.store, userID, sessionID)
}

// verifyOwnsSession runs the ownership lookup on store, which may be bound to a transaction.
func verifyOwnsSession(ctx context.Context, store *repositories.Store, userID, sessionID int64) (int64, error) {
	return store.Sessions.OwnedBy(ctx, userID, sessionID)
}
