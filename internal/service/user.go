package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/jsalmeida/ecommerce-api/internal/events"
	"github.com/jsalmeida/ecommerce-api/internal/hash"
	"github.com/jsalmeida/ecommerce-api/internal/logging"
	"github.com/jsalmeida/ecommerce-api/internal/models"
	"github.com/jsalmeida/ecommerce-api/internal/repo"
	"github.com/jsalmeida/ecommerce-api/internal/transport"
)

type UserService struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
}

// Register creates an account. Signup is open: no session is required.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			l.Warn("register_failed", "reason", "username taken", "username", username)
			return nil, fmt.Errorf("username taken: %w", ErrValidation)
		}
		l.Error("register_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":     "user_created",
		"userID":   user.ID,
		"username": user.Username,
	}, user.ID)

	l.Info("register_success", "user_id", user.ID)
	return &user, nil
}

// Update patches username and/or password. The target must exist before the
// ownership check runs: a missing id is NotFound even for a foreign caller,
// an existing foreign id is Forbidden.
func (s *UserService) Update(ctx context.Context, currentUserID, targetID uint, req transport.UpdateUserRequest) error {
	l := logging.FromContext(ctx).With("svc", "user.update", "target_id", targetID)

	user, err := s.Repo.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", targetID, ErrNotFound)
		}
		l.Error("update_failed", "error", err)
		return err
	}

	if currentUserID != targetID {
		l.Warn("update_failed", "reason", "not the account owner", "caller_id", currentUserID)
		return fmt.Errorf("user %d is not yours: %w", targetID, ErrForbidden)
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Password != nil {
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			l.Error("update_failed", "reason", "cannot hash password", "error", err)
			return err
		}
		user.PasswordHash = pwHash
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		l.Error("update_failed", "error", err)
		return err
	}

	s.publish(ctx, map[string]any{
		"type":   "user_updated",
		"userID": user.ID,
	}, user.ID)

	l.Info("update_success")
	return nil
}

// Delete removes the caller's own account. A foreign id reads the same as a
// missing one, so nothing leaks about other accounts.
func (s *UserService) Delete(ctx context.Context, currentUserID, targetID uint) error {
	l := logging.FromContext(ctx).With("svc", "user.delete", "target_id", targetID)

	if _, err := s.Repo.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", targetID, ErrNotFound)
		}
		l.Error("delete_failed", "error", err)
		return err
	}

	if currentUserID != targetID {
		l.Warn("delete_failed", "reason", "not the account owner", "caller_id", currentUserID)
		return fmt.Errorf("user %d: %w", targetID, ErrNotFound)
	}

	if err := s.Repo.DeleteUser(ctx, targetID); err != nil {
		l.Error("delete_failed", "error", err)
		return err
	}

	s.publish(ctx, map[string]any{
		"type":   "user_deleted",
		"userID": targetID,
	}, targetID)

	l.Info("delete_success")
	return nil
}

func (s *UserService) publish(ctx context.Context, event map[string]any, userID uint) {
	key := strconv.FormatUint(uint64(userID), 10)
	if err := s.Producer.Publish(ctx, events.TopicUserEvents, key, event); err != nil {
		logging.FromContext(ctx).Warn("user_event_publish_failed", "error", err)
	}
}
