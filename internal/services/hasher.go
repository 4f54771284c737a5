package services

import (
	"errors"
	"fmt"

	"github.com/desertthunder/practicelog/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// Hasher derives and checks password digests. Salting is the implementation's concern.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) bool
}

// BcryptHasher implements [Hasher] with bcrypt, which embeds a random salt in every digest.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher creates a [BcryptHasher], clamping cost to bcrypt's accepted range.
// Zero selects [bcrypt.DefaultCost].
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", shared.ClientError("Password too long")
	}
	if err != nil {
		return "", shared.BackendError(fmt.Errorf("failed to hash password: %w", err))
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
