package domain

// CountEvent is one point in a rolling usage series: the new count and when
// it changed.
type CountEvent struct {
	Count     int   `json:"count"`
	TimeStamp int64 `json:"time_stamp"`
}

// UserStats tracks a user's involvement over time. Each series grows by one
// entry whenever the underlying count changes.
type UserStats struct {
	ChannelsJoined []CountEvent `json:"channels_joined"`
	DMsJoined      []CountEvent `json:"dms_joined"`
	MessagesSent   []CountEvent `json:"messages_sent"`
}

// WorkspaceStats tracks workspace-wide existence counts. Messages decrease
// on removal; channels never do.
type WorkspaceStats struct {
	ChannelsExist []CountEvent `json:"channels_exist"`
	DMsExist      []CountEvent `json:"dms_exist"`
	MessagesExist []CountEvent `json:"messages_exist"`
}

func last(series []CountEvent) int {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Count
}

// Bump appends a new point with the previous count adjusted by delta.
func Bump(series []CountEvent, delta int, now int64) []CountEvent {
	return append(series, CountEvent{Count: last(series) + delta, TimeStamp: now})
}

// Involvement is the user's share of workspace activity, capped at 1.
func (s *UserStats) Involvement(ws *WorkspaceStats) float64 {
	denom := last(ws.ChannelsExist) + last(ws.DMsExist) + last(ws.MessagesExist)
	if denom == 0 {
		return 0
	}
	rate := float64(last(s.ChannelsJoined)+last(s.DMsJoined)+last(s.MessagesSent)) / float64(denom)
	if rate > 1 {
		return 1
	}
	return rate
}
