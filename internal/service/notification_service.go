package service

import (
	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

type NotificationService struct {
	store  *store.Store
	logger *zap.Logger
}

func NewNotificationService(st *store.Store, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: st, logger: logger}
}

// Get returns the caller's most recent notifications, newest first, capped
// at 20.
func (s *NotificationService) Get(uID int) ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		list := st.Notifications[uID]
		if len(list) > domain.NotificationPageSize {
			list = list[:domain.NotificationPageSize]
		}
		out = append(out, list...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
