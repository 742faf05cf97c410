package domain

// ReactThumbsUp is the only recognised react kind.
const ReactThumbsUp = 1

// RedactedBody replaces the body of every message authored by a user who is
// removed from the workspace.
const RedactedBody = "Removed user"

// MaxMessageLen bounds message bodies for send, edit and share.
const MaxMessageLen = 1000

// React records which users have reacted to a message with a given kind.
type React struct {
	ID   int   `json:"react_id"`
	UIDs []int `json:"u_ids"`
}

// Message is stored inside exactly one channel or DM for its lifetime.
// Message ids are assigned from a single workspace-wide counter, so an id
// alone locates a message.
type Message struct {
	ID       int     `json:"message_id"`
	AuthorID int     `json:"u_id"`
	Body     string  `json:"message"`
	TimeSent int64   `json:"time_sent"`
	Reacts   []React `json:"reacts"`
	IsPinned bool    `json:"is_pinned"`
}

// ReactedBy reports whether uID has the given react on m.
func (m *Message) ReactedBy(uID, reactID int) bool {
	for _, r := range m.Reacts {
		if r.ID != reactID {
			continue
		}
		for _, id := range r.UIDs {
			if id == uID {
				return true
			}
		}
	}
	return false
}

// AddReact records uID under reactID, creating the react entry on first use.
func (m *Message) AddReact(uID, reactID int) {
	for i := range m.Reacts {
		if m.Reacts[i].ID == reactID {
			m.Reacts[i].UIDs = append(m.Reacts[i].UIDs, uID)
			return
		}
	}
	m.Reacts = append(m.Reacts, React{ID: reactID, UIDs: []int{uID}})
}

// RemoveReact removes uID from reactID. The react entry stays even when its
// user list empties.
func (m *Message) RemoveReact(uID, reactID int) {
	for i := range m.Reacts {
		if m.Reacts[i].ID != reactID {
			continue
		}
		uids := m.Reacts[i].UIDs
		for j, id := range uids {
			if id == uID {
				m.Reacts[i].UIDs = append(uids[:j], uids[j+1:]...)
				return
			}
		}
	}
}

// ReactView is a React plus the per-viewer flag, computed fresh on every
// read and never stored.
type ReactView struct {
	ID                int   `json:"react_id"`
	UIDs              []int `json:"u_ids"`
	IsThisUserReacted bool  `json:"is_this_user_reacted"`
}

// MessageView is what read paths return: a copy of the message with reacts
// resolved against the viewing user.
type MessageView struct {
	ID       int         `json:"message_id"`
	AuthorID int         `json:"u_id"`
	Body     string      `json:"message"`
	TimeSent int64       `json:"time_sent"`
	Reacts   []ReactView `json:"reacts"`
	IsPinned bool        `json:"is_pinned"`
}

// ViewFor builds the viewer-specific copy of m.
func (m *Message) ViewFor(viewer int) MessageView {
	reacts := make([]ReactView, 0, len(m.Reacts))
	for _, r := range m.Reacts {
		uids := make([]int, len(r.UIDs))
		copy(uids, r.UIDs)
		reacts = append(reacts, ReactView{
			ID:                r.ID,
			UIDs:              uids,
			IsThisUserReacted: m.ReactedBy(viewer, r.ID),
		})
	}
	return MessageView{
		ID:       m.ID,
		AuthorID: m.AuthorID,
		Body:     m.Body,
		TimeSent: m.TimeSent,
		Reacts:   reacts,
		IsPinned: m.IsPinned,
	}
}
