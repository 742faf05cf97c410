package ws

import (
	"encoding/json"
	"time"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeChannelSubscribe   = "channel.subscribe"
	EventTypeChannelUnsubscribe = "channel.unsubscribe"
	EventTypeDMSubscribe        = "dm.subscribe"
	EventTypeDMUnsubscribe      = "dm.unsubscribe"
	EventTypeTypingStart        = "typing.start"
	EventTypeTypingStop         = "typing.stop"
	EventTypePing               = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageNew      = "message.new"
	EventTypeMessageEdited   = "message.edited"
	EventTypeMessageDeleted  = "message.deleted"
	EventTypeNotificationNew = "notification.new"
	EventTypeTyping          = "typing"
	EventTypePresence        = "presence"
	EventTypePong            = "pong"
	EventTypeError           = "error"
)

// Event is the base envelope for all WebSocket messages. ChannelID and DMID
// are mutually exclusive: exactly one is set on container-scoped events.
type Event struct {
	Type      string          `json:"type"`
	ChannelID *int            `json:"channel_id,omitempty"`
	DMID      *int            `json:"dm_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ChannelPayload struct {
	ChannelID int `json:"channel_id"`
}

type DMPayload struct {
	DMID int `json:"dm_id"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.MessageView
}

type MessageDeletedPayload struct {
	ID int `json:"message_id"`
}

type NotificationPayload struct {
	domain.Notification
}

type TypingPayload struct {
	UserID int `json:"u_id"`
}

type PresencePayload struct {
	UserID int    `json:"u_id"`
	Status string `json:"status"` // "online" | "offline"
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, channelID, dmID *int, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		ChannelID: channelID,
		DMID:      dmID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}

// ref turns a (channelID, dmID) pair using the -1 sentinel into the pair of
// optional pointers the envelope carries.
func ref(channelID, dmID int) (*int, *int) {
	if channelID >= 0 {
		return &channelID, nil
	}
	if dmID >= 0 {
		return nil, &dmID
	}
	return nil, nil
}
