// Package services contains the server's business logic: authentication,
// article management, seeding and media uploads.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/cryptox"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/users"
)

// sessionIDBytes gives 256-bit session ids.
const sessionIDBytes = 32

// AuthService registers users, verifies credentials and manages sessions.
// Accounts created here are never admins.
type AuthService struct {
	users      users.Repository
	sessions   sessions.Repository
	hasher     cryptox.PasswordHasher
	sessionTTL time.Duration
	log        logging.Logger

	now          func() time.Time
	newSessionID func() (string, error)

	// dummyDigest is verified against when the username is unknown so both
	// failure paths cost one key derivation.
	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(u users.Repository, s sessions.Repository, hasher cryptox.PasswordHasher, sessionTTL time.Duration, log logging.Logger) *AuthService {
	return &AuthService{
		users:        u,
		sessions:     s,
		hasher:       hasher,
		sessionTTL:   sessionTTL,
		log:          log.With("module", "auth"),
		now:          time.Now,
		newSessionID: func() (string, error) { return common.MakeRandHexString(sessionIDBytes) },
	}
}

// Register creates a non-admin account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, *models.Session, error) {
	verr := &common.ValidationError{}
	if strings.TrimSpace(username) == "" {
		verr.Add("username", "username is required")
	}
	if password == "" {
		verr.Add("password", "password is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{Username: username, PasswordDigest: digest})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, nil, common.ErrorConflict
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, sess, nil
}

// Login verifies credentials and opens a fresh session. previousSessionID,
// when set, is destroyed so a pre-login id never becomes authenticated.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password, previousSessionID string) (*models.User, *models.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(ctx, password)
			return nil, nil, common.ErrorInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordDigest) {
		s.log.Warn(ctx, "login failed", "user_id", user.ID)
		return nil, nil, common.ErrorInvalidCredentials
	}

	if previousSessionID != "" {
		if err := s.sessions.Delete(ctx, previousSessionID); err != nil {
			s.log.Warn(ctx, "failed to drop previous session", "error", err)
		}
	}

	sess, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return user, sess, nil
}

// Logout destroys the session. An empty id is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser resolves a session to its user and slides the session expiry.
// The returned session carries the new expiry.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*models.User, *models.Session, error) {
	if sessionID == "" {
		return nil, nil, common.ErrorUnauthorized
	}

	sess, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("find session: %w", err)
	}

	user, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = s.sessions.Delete(ctx, sessionID)
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	expires := s.now().Add(s.sessionTTL)
	if err := s.sessions.Touch(ctx, sessionID, expires); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("touch session: %w", err)
	}
	sess.Expires = expires

	return user, sess, nil
}

// RequireAdmin reports ErrorUnauthorized for a missing user and
// ErrorForbidden for a non-admin.
func (s *AuthService) RequireAdmin(user *models.User) error {
	if user == nil {
		return common.ErrorUnauthorized
	}
	if !user.IsAdmin {
		return common.ErrorForbidden
	}
	return nil
}

func (s *AuthService) burnVerify(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("agrocms-unknown-user")
		if err != nil {
			s.log.Warn(ctx, "failed to prepare dummy digest", "error", err)
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest != "" {
		_ = s.hasher.Verify(password, s.dummyDigest)
	}
}

func (s *AuthService) openSession(ctx context.Context, userID int64) (*models.Session, error) {
	id, err := s.newSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	sess := &models.Session{ID: id, UserID: userID, Expires: s.now().Add(s.sessionTTL)}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}
