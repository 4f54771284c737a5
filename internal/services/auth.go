package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/shared"
)

// UserStore is the persistence [AuthService] needs. [repositories.UserRepository] implements it.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}

// AuthService registers users and binds session tokens to them.
//
// The [SessionStore] is the only source of identity: every request resolves its token again.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	hasher   Hasher
	logger   *log.Logger

	// dummyDigest is verified against for unknown users so both login failures cost one hash check.
	dummyDigest string
}

func NewAuthService(users UserStore, sessions SessionStore, hasher Hasher, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	dummy, err := hasher.Hash(shared.GenerateToken())
	if err != nil {
		logger.Warn("failed to derive placeholder digest", "error", err)
	}

	return &AuthService{users: users, sessions: sessions, hasher: hasher, logger: logger, dummyDigest: dummy}
}

// Register creates a user. Name checks run before hashing.
func (s *AuthService) Register(ctx context.Context, name, password string) (*models.User, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return nil, shared.ClientError("User name is required")
	case utf8.RuneCountInString(name) > models.MaxUserNameLength:
		return nil, shared.ClientError("User name too long")
	case password == "":
		return nil, shared.ClientError("Password is required")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Insert(ctx, &models.User{UserName: name, PasswordHash: digest})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "user_id", user.UserID, "user_name", user.UserName)
	return &models.User{UserID: user.UserID, UserName: user.UserName}, nil
}

// Login checks credentials and mints a new session token.
//
// An unknown user and a wrong password produce the same error. previousToken, when set,
// is invalidated so that a login always regenerates the session.
func (s *AuthService) Login(ctx context.Context, previousToken, name, password string) (string, *models.User, error) {
	user, err := s.users.GetByName(ctx, name)
	if shared.KindOf(err) == shared.KindNotFound {
		s.hasher.Verify(s.dummyDigest, password)
		return "", nil, shared.LoginFailed()
	}
	if err != nil {
		return "", nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return "", nil, shared.LoginFailed()
	}

	if previousToken != "" {
		if err := s.sessions.Invalidate(ctx, previousToken); err != nil {
			return "", nil, shared.BackendError(err)
		}
	}

	token := shared.GenerateToken()
	if err := s.sessions.Set(ctx, token, user.UserID); err != nil {
		return "", nil, shared.BackendError(err)
	}

	s.logger.Debug("user logged in", "user_id", user.UserID)
	return token, &models.User{UserID: user.UserID, UserName: user.UserName}, nil
}

// Logout invalidates token. Unknown and empty tokens are accepted.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return shared.BackendError(err)
	}
	return nil
}

// CurrentUser resolves token to a user id, or returns an unauthorized error.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, shared.Unauthorized()
	}

	userID, err := s.sessions.Get(ctx, token)
	if errors.Is(err, shared.ErrSessionNotFound) {
		return 0, shared.Unauthorized()
	}
	if err != nil {
		return 0, shared.BackendError(fmt.Errorf("failed to resolve session: %w", err))
	}
	return userID, nil
}

// User returns the public fields of the user with id.
func (s *AuthService) User(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.User{UserID: user.UserID, UserName: user.UserName}, nil
}
