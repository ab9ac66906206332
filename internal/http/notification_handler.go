package http

import (
	"context"
	"net/http"
	"time"

	"github.com/davex-ai/SwiftBites/internal/auth"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationService interface {
	ListMine(ctx context.Context, id domain.Identity) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id domain.Identity, notificationID string) error
}

type NotificationHandler struct {
	notifications NotificationService
	logger        *zap.Logger
	timeout       time.Duration
}

func NewNotificationHandler(notifications NotificationService, logger *zap.Logger, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger, timeout: timeout}
}

// GET /my-notifications
func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.notifications.ListMine(ctx, auth.FromContext(ctx))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = make([]*domain.Notification, 0)
	}
	respondJSON(w, http.StatusOK, list)
}

// PATCH /notifications/{notificationId}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	notificationID := chi.URLParam(r, "notificationId")
	if err := h.notifications.MarkRead(ctx, auth.FromContext(ctx), notificationID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": notificationID, "read": true})
}
