package service

import (
	"context"
	"fmt"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// Record stores the owner's notification for event. Recording the same event
// twice keeps one notification.
func (s *NotificationService) Record(ctx context.Context, event domain.OrderEvent) error {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    event.UserID,
		OrderID:   event.OrderID,
		EventID:   event.ID,
		Message:   notificationMessage(event),
		CreatedAt: event.OccurredAt,
	}
	switch event.Type {
	case domain.EventOrderPlaced:
		n.Kind = domain.NotificationOrderPlaced
	case domain.EventOrderStatusChanged:
		n.Kind = domain.NotificationStatusChanged
	default:
		s.logger.Debug("ignoring order event", zap.String("type", string(event.Type)))
		return nil
	}

	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("record notification for order %s: %w", event.OrderID, err)
	}
	return nil
}

func (s *NotificationService) ListMine(ctx context.Context, id domain.Identity) ([]*domain.Notification, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.ListByUserID(ctx, id.UserID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id domain.Identity, notificationID string) error {
	if !id.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return s.repo.MarkRead(ctx, id.UserID, notificationID)
}

func notificationMessage(event domain.OrderEvent) string {
	short := event.OrderID
	if len(short) > 8 {
		short = short[:8]
	}
	switch event.Type {
	case domain.EventOrderPlaced:
		return fmt.Sprintf("Your order #%s has been placed. Total due on delivery: %.2f", short, event.TotalAmount)
	case domain.EventOrderStatusChanged:
		return fmt.Sprintf("Your order #%s is now %s", short, event.Status)
	}
	return ""
}
