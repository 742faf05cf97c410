package domain

// Standup buffers messages posted during an active standup window. At
// TimeFinish the buffered lines are flushed as a single message from the
// starter.
type Standup struct {
	ChannelID  int      `json:"channel_id"`
	StarterID  int      `json:"starter_id"`
	TimeFinish int64    `json:"time_finish"`
	Buffer     []string `json:"buffer"`
}
