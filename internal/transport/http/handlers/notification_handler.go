package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/service"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	uID := middleware.GetUserID(r.Context())
	notifications, err := h.notificationService.Get(uID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}
