package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainNotification "github.com/rental-hub/rental-hub/internal/domain/notification"
)

// Service exposes the recipient-facing notification inbox.
type Service struct {
	notifRepo domainNotification.Repository
	logger    zerolog.Logger
}

func NewService(notifRepo domainNotification.Repository, logger zerolog.Logger) *Service {
	return &Service{
		notifRepo: notifRepo,
		logger:    logger.With().Str("service", "notification").Logger(),
	}
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*domainNotification.Notification, error) {
	return s.notifRepo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead flags a notification as read. Only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	if err := s.notifRepo.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// Delete removes a notification. Only the recipient may do so.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	if err := s.notifRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}
