package ws

import (
	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *Hub, logger *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) NotifyNewMessage(channelID, dmID int, msg domain.MessageView) {
	chRef, dmRef := ref(channelID, dmID)
	evt, err := NewEvent(EventTypeMessageNew, chRef, dmRef, MessagePayload{MessageView: msg})
	if err != nil {
		n.logger.Error("WS notifier marshal failed", zap.Error(err))
		return
	}
	n.hub.BroadcastToContainer(channelID, dmID, evt, nil)
}

func (n *HubNotifier) NotifyEditedMessage(channelID, dmID int, msg domain.MessageView) {
	chRef, dmRef := ref(channelID, dmID)
	evt, err := NewEvent(EventTypeMessageEdited, chRef, dmRef, MessagePayload{MessageView: msg})
	if err != nil {
		n.logger.Error("WS notifier marshal failed", zap.Error(err))
		return
	}
	n.hub.BroadcastToContainer(channelID, dmID, evt, nil)
}

func (n *HubNotifier) NotifyDeletedMessage(channelID, dmID, messageID int) {
	chRef, dmRef := ref(channelID, dmID)
	evt, err := NewEvent(EventTypeMessageDeleted, chRef, dmRef, MessageDeletedPayload{ID: messageID})
	if err != nil {
		n.logger.Error("WS notifier marshal failed", zap.Error(err))
		return
	}
	n.hub.BroadcastToContainer(channelID, dmID, evt, nil)
}

func (n *HubNotifier) NotifyNotification(uID int, notif domain.Notification) {
	evt, err := NewEvent(EventTypeNotificationNew, nil, nil, NotificationPayload{Notification: notif})
	if err != nil {
		n.logger.Error("WS notifier marshal failed", zap.Error(err))
		return
	}
	n.hub.BroadcastToUser(uID, evt)
}
