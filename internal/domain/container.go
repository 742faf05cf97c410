package domain

// Container is anything that owns an ordered message sequence and a
// membership set: a channel or a DM. Pagination, reacts, pins and share all
// work through this interface so channel and DM message handling share one
// code path.
type Container interface {
	// ContainerName is the display name used in notification text.
	ContainerName() string
	// HasMember reports whether uID is in the membership set.
	HasMember(uID int) bool
	// MemberIDs returns the membership set in insertion order.
	MemberIDs() []int
	// AllMessages returns the message sequence, newest first.
	AllMessages() []*Message
	// InsertMessage places m into the sequence keeping newest-first order
	// by timestamp. A deferred send can materialise after later sends, so
	// insertion finds the right slot instead of blindly prepending.
	InsertMessage(m *Message)
	// TakeMessage removes and returns the message with the given id, or
	// nil if it is not in this container.
	TakeMessage(id int) *Message
}

// insertByTime prepends m when it is the newest, otherwise walks forward to
// the first message with an equal-or-older timestamp. Among equal
// timestamps the later insertion lands first.
func insertByTime(seq []*Message, m *Message) []*Message {
	at := len(seq)
	for i, cur := range seq {
		if cur.TimeSent <= m.TimeSent {
			at = i
			break
		}
	}
	seq = append(seq, nil)
	copy(seq[at+1:], seq[at:])
	seq[at] = m
	return seq
}

func takeMessage(seq []*Message, id int) ([]*Message, *Message) {
	for i, m := range seq {
		if m.ID == id {
			return append(seq[:i], seq[i+1:]...), m
		}
	}
	return seq, nil
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
