// Package service implements the core operations of the workspace: auth,
// users, channels, DMs, messages, notifications and standups. Every service
// shares one Store and performs each operation as a single Update or View,
// so a mutation either fully applies or is rejected before any field is
// touched.
package service

import (
	"time"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

func nowUnix() int64 { return time.Now().Unix() }

// Notifier pushes real-time events to connected clients. Optional; services
// work without one.
type Notifier interface {
	NotifyNewMessage(channelID, dmID int, msg domain.MessageView)
	NotifyEditedMessage(channelID, dmID int, msg domain.MessageView)
	NotifyDeletedMessage(channelID, dmID, messageID int)
	NotifyNotification(uID int, n domain.Notification)
}

// containerRef reports the (channelID, dmID) pair for a container, with -1
// marking the absent side. This is the shape notifications carry.
func containerRef(c domain.Container) (channelID, dmID int) {
	switch v := c.(type) {
	case *domain.Channel:
		return v.ID, -1
	case *domain.DM:
		return -1, v.ID
	}
	return -1, -1
}

// actorByID resolves the authenticated user id against the store. A token
// can outlive its user only briefly (sessions are revoked on removal), so a
// miss is an authentication failure, not an input error.
func actorByID(st *store.State, uID int) (*domain.User, error) {
	u, ok := st.UserByID(uID)
	if !ok {
		return nil, domain.Unauthenticatedf("user %d no longer exists", uID)
	}
	return u, nil
}

func channelByID(st *store.State, id int) (*domain.Channel, error) {
	ch, ok := st.Channels[id]
	if !ok {
		return nil, domain.InvalidInputf("channel %d does not exist", id)
	}
	return ch, nil
}

func dmByID(st *store.State, id int) (*domain.DM, error) {
	dm, ok := st.DMs[id]
	if !ok {
		return nil, domain.InvalidInputf("dm %d does not exist", id)
	}
	return dm, nil
}

func targetUserByID(st *store.State, id int) (*domain.User, error) {
	u, ok := st.UserByID(id)
	if !ok {
		return nil, domain.InvalidInputf("user %d does not exist", id)
	}
	return u, nil
}
