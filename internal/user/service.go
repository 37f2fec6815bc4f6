// File: internal/user/service.go
package user

import (
	"context"

	"donation_share_backend/internal/common"

	"go.uber.org/zap"
)

// Service defines the interface for user-related business logic.
type Service interface {
	Register(ctx context.Context, req RegisterUserRequest) (*User, error)
	GetByUserID(ctx context.Context, userID string) (*User, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

// Register upserts an identity record. Registering an already-known identity
// is not an error: the stored record is returned unchanged, so clients can
// call this on every session start.
func (s *service) Register(ctx context.Context, req RegisterUserRequest) (*User, error) {
	newUser := &User{UserID: req.UserID, Role: req.Role}
	err := s.repo.Create(ctx, newUser)
	if err == nil {
		s.logger.Info("User registered", zap.String("userID", newUser.UserID), zap.String("role", newUser.Role))
		return newUser, nil
	}

	if common.HasCode(err, "CONFLICT") {
		existing, findErr := s.repo.FindByUserID(ctx, req.UserID)
		if findErr != nil {
			s.logger.Error("User exists but could not be reloaded", zap.String("userID", req.UserID), zap.Error(findErr))
			return nil, findErr
		}
		return existing, nil
	}

	s.logger.Error("Failed to register user", zap.String("userID", req.UserID), zap.Error(err))
	return nil, err
}

// GetByUserID retrieves a user record by identity string.
func (s *service) GetByUserID(ctx context.Context, userID string) (*User, error) {
	return s.repo.FindByUserID(ctx, userID)
}
