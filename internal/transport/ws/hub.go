package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// target identifies the container a broadcast is scoped to. Exactly one of
// the two ids is >= 0.
type target struct {
	channelID int
	dmID      int
}

// Hub manages all active WebSocket clients and routes messages.
type Hub struct {
	// clients maps userID → client.
	clients map[int]*Client
	logger  *zap.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	direct     chan *directMsg
}

type broadcastMsg struct {
	target    target
	data      []byte
	excludeID *int // optional: skip this user (e.g. sender)
}

type directMsg struct {
	userID int
	data   []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int]*Client),
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		direct:     make(chan *directMsg, 256),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.userID] = client
			h.logger.Info("WS client connected",
				zap.Int("u_id", client.userID),
				zap.Int("total", len(h.clients)))

			h.broadcastPresence(client.userID, "online")

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID]; ok {
				h.dropClient(client)
				h.logger.Info("WS client disconnected",
					zap.Int("u_id", client.userID),
					zap.Int("total", len(h.clients)))

				h.broadcastPresence(client.userID, "offline")
			}

		case msg := <-h.broadcast:
			for _, client := range h.clients {
				if msg.excludeID != nil && client.userID == *msg.excludeID {
					continue
				}
				if !client.IsSubscribed(msg.target) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					h.dropClient(client)
				}
			}

		case msg := <-h.direct:
			if client, ok := h.clients[msg.userID]; ok {
				select {
				case client.send <- msg.data:
				default:
					h.dropClient(client)
				}
			}
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	delete(h.clients, client.userID)
	close(client.send)
	close(client.done)
}

// BroadcastToContainer sends an event to all subscribers of a channel or DM.
// Exactly one of channelID and dmID is >= 0.
func (h *Hub) BroadcastToContainer(channelID, dmID int, event *Event, excludeUserID *int) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("WS marshal failed", zap.Error(err))
		return
	}
	h.broadcast <- &broadcastMsg{
		target:    target{channelID: channelID, dmID: dmID},
		data:      data,
		excludeID: excludeUserID,
	}
}

// BroadcastToUser sends an event directly to a specific user.
func (h *Hub) BroadcastToUser(userID int, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.direct <- &directMsg{userID: userID, data: data}
}

// HandleTyping broadcasts typing events to container subscribers
// (excluding the sender).
func (h *Hub) HandleTyping(sender *Client, event *Event) {
	if event.Type != EventTypeTypingStart {
		return // typing.stop doesn't need broadcast, clients use a timeout
	}

	channelID, dmID := -1, -1
	if event.ChannelID != nil {
		channelID = *event.ChannelID
	}
	if event.DMID != nil {
		dmID = *event.DMID
	}

	evt, err := NewEvent(EventTypeTyping, event.ChannelID, event.DMID, TypingPayload{
		UserID: sender.userID,
	})
	if err != nil {
		return
	}

	h.BroadcastToContainer(channelID, dmID, evt, &sender.userID)
}

// broadcastPresence sends online/offline to all connected clients.
func (h *Hub) broadcastPresence(userID int, status string) {
	evt, err := NewEvent(EventTypePresence, nil, nil, PresencePayload{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for _, client := range h.clients {
		if client.userID == userID {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}
