package service

import (
	"fmt"
	"regexp"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

// tagPattern matches @handle candidates. Handles are lowercase
// alphanumeric, but the scan is permissive and lets the handle index decide
// what resolves.
var tagPattern = regexp.MustCompile(`@[a-zA-Z0-9]+`)

// delivery pairs a stored notification with its recipient, so callers can
// push it over the wire after the store transaction commits.
type delivery struct {
	uID int
	n   domain.Notification
}

// pushNotification appends n at the head of uID's list inside the current
// transaction.
func pushNotification(st *store.State, uID int, n domain.Notification) delivery {
	st.Notifications[uID] = append([]domain.Notification{n}, st.Notifications[uID]...)
	return delivery{uID: uID, n: n}
}

// scanTags finds @handle mentions in body that resolve to members of c and
// records a tag notification for each, once per handle per call.
func scanTags(st *store.State, author *domain.User, c domain.Container, body string) []delivery {
	channelID, dmID := containerRef(c)

	// First 20 characters of the body; counted in runes so a multibyte
	// character is never split.
	preview := body
	if r := []rune(preview); len(r) > 20 {
		preview = string(r[:20])
	}

	seen := make(map[int]bool)
	var out []delivery
	for _, match := range tagPattern.FindAllString(body, -1) {
		tagged, ok := st.UserByHandle(match[1:])
		if !ok || seen[tagged.ID] || !c.HasMember(tagged.ID) {
			continue
		}
		seen[tagged.ID] = true
		out = append(out, pushNotification(st, tagged.ID, domain.Notification{
			ChannelID: channelID,
			DMID:      dmID,
			Message:   fmt.Sprintf("%s tagged you in %s: %s", author.Handle, c.ContainerName(), preview),
		}))
	}
	return out
}

// notifyReacted records a react notification for the message author, unless
// the author has since left the container.
func notifyReacted(st *store.State, reactor *domain.User, c domain.Container, msg *domain.Message) []delivery {
	if !c.HasMember(msg.AuthorID) {
		return nil
	}
	channelID, dmID := containerRef(c)
	d := pushNotification(st, msg.AuthorID, domain.Notification{
		ChannelID: channelID,
		DMID:      dmID,
		Message:   fmt.Sprintf("%s reacted to your message in %s", reactor.Handle, c.ContainerName()),
	})
	return []delivery{d}
}

// notifyAdded records an added-to-container notification for target.
func notifyAdded(st *store.State, adder *domain.User, c domain.Container, targetID int) []delivery {
	channelID, dmID := containerRef(c)
	d := pushNotification(st, targetID, domain.Notification{
		ChannelID: channelID,
		DMID:      dmID,
		Message:   fmt.Sprintf("%s added you to %s", adder.Handle, c.ContainerName()),
	})
	return []delivery{d}
}
