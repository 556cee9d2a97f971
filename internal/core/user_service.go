package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"livewall-backend-go/internal/db"
	"livewall-backend-go/internal/metrics"
	"livewall-backend-go/internal/models"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidIdentity is returned when an identity has no subject.
	ErrInvalidIdentity = errors.New("identity has no subject")
)

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SignIn looks the user up by identity subject and creates the record on first sign-in.
// Existing records are never modified here.
func (s *userService) SignIn(ctx context.Context, identity models.Identity) (*models.User, bool, error) {
	if identity.Subject == "" {
		return nil, false, ErrInvalidIdentity
	}

	user, err := s.userRepo.GetByID(ctx, identity.Subject)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", identity.Subject, err)
	}

	now := s.now()
	newUser := &models.User{
		ID:                 identity.Subject,
		Email:              identity.Email,
		Name:               displayName(identity),
		Avatar:             identity.Picture,
		IsCreator:          false,
		SubscriptionStatus: models.SubscriptionStatusInactive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			// Lost a concurrent first sign-in; the winner's record is authoritative.
			existing, getErr := s.userRepo.GetByID(ctx, identity.Subject)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to re-read user '%s' after create race: %w", identity.Subject, getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", identity.Subject, err)
	}

	s.logger.Info("Created user record on first sign-in",
		zap.String("userID", newUser.ID), zap.String("provider", identity.Provider))
	return newUser, true, nil
}

// MaterializeSession re-reads the user on every call so entitlement changes applied by
// the billing webhook are visible on the next request.
func (s *userService) MaterializeSession(ctx context.Context, claims models.SessionClaims) models.Session {
	session := models.Session{
		ID:                 claims.Subject,
		Name:               claims.Name,
		Email:              claims.Email,
		Image:              claims.Picture,
		IsCreator:          false,
		SubscriptionStatus: models.SubscriptionStatusInactive,
	}

	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		metrics.SessionFallbacks.Inc()
		s.logger.Warn("Serving session with default entitlements",
			zap.String("userID", claims.Subject), zap.Error(err))
		return session
	}

	session.IsCreator = user.IsCreator
	session.SubscriptionStatus = user.SubscriptionStatus
	if session.SubscriptionStatus == "" {
		session.SubscriptionStatus = models.SubscriptionStatusInactive
	}
	return session
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

func displayName(identity models.Identity) string {
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(identity.Email, "@"); ok && local != "" {
		return local
	}
	return identity.Email
}
