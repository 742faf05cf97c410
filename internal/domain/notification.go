package domain

// Notification is one entry in a user's notification list. Exactly one of
// ChannelID/DMID identifies the container; the other is -1.
type Notification struct {
	ChannelID int    `json:"channel_id"`
	DMID      int    `json:"dm_id"`
	Message   string `json:"notification_message"`
}

// NotificationPageSize caps how many notifications a retrieval returns.
const NotificationPageSize = 20
