package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jsalmeida/ecommerce-api/internal/hash"
	"github.com/jsalmeida/ecommerce-api/internal/logging"
	"github.com/jsalmeida/ecommerce-api/internal/models"
	"github.com/jsalmeida/ecommerce-api/internal/repo"
	"github.com/jsalmeida/ecommerce-api/internal/tokens"
)

const sessionTTL = 24 * time.Hour

type AuthService struct {
	Repo   *repo.GormRepo
	Secret []byte
}

type LoginResult struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
	UserID    uint
}

// Login verifies the credentials and establishes a session: a signed token
// for the cookie plus a session row keyed by JTI so logout can revoke it.
// Every credential failure collapses into ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrUnauthorized)
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		l.Warn("login_failed", "reason", "unknown username")
		return nil, fmt.Errorf("unknown username: %w", ErrUnauthorized)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch")
		return nil, fmt.Errorf("password mismatch: %w", ErrUnauthorized)
	}

	exp := time.Now().Add(sessionTTL)
	token, jti, err := tokens.NewSessionToken(user.ID, s.Secret, exp)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	session := models.Session{
		TokenHash: tokens.Sha256Hex(token),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: exp.Unix(),
	}
	if err := s.Repo.CreateSession(ctx, &session); err != nil {
		l.Error("login_failed", "reason", "cannot persist session", "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{
		Token:     token,
		JTI:       jti,
		ExpiresAt: exp,
		UserID:    user.ID,
	}, nil
}

// Logout revokes the session behind the given JTI. A session that is already
// gone counts as having no active session.
func (s *AuthService) Logout(ctx context.Context, jti string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Repo.RevokeSession(ctx, jti); err != nil {
		if errors.Is(err, repo.ErrSessionInactive) {
			return fmt.Errorf("no active session: %w", ErrUnauthorized)
		}
		l.Error("logout_failed", "error", err)
		return err
	}

	l.Info("logout_success")
	return nil
}
