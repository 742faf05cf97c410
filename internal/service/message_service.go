package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/authz"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/scheduler"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

// messagePageSize is the pagination window for message listing.
const messagePageSize = 50

type MessageService struct {
	store    *store.Store
	logger   *zap.Logger
	sched    *scheduler.Scheduler
	notifier Notifier
}

func NewMessageService(st *store.Store, sched *scheduler.Scheduler, logger *zap.Logger) *MessageService {
	return &MessageService{store: st, sched: sched, logger: logger}
}

func (s *MessageService) SetNotifier(n Notifier) { s.notifier = n }

// MessagesPage is one pagination window. End is -1 when there is nothing
// more to fetch, otherwise the start value for the next call.
type MessagesPage struct {
	Messages []domain.MessageView `json:"messages"`
	Start    int                  `json:"start"`
	End      int                  `json:"end"`
}

// paginate computes the visible window over a newest-first sequence. start
// equal to the count yields an empty page with End -1; only start beyond
// the count is an error. React flags are resolved per viewer, fresh each
// call.
func paginate(viewer int, msgs []*domain.Message, start int) (*MessagesPage, error) {
	if start < 0 {
		return nil, domain.InvalidInputf("start must not be negative")
	}
	count := len(msgs)
	if start > count {
		return nil, domain.InvalidInputf("start %d is greater than the number of messages (%d)", start, count)
	}

	page := count - start
	if page > messagePageSize {
		page = messagePageSize
	}

	views := make([]domain.MessageView, 0, page)
	for _, m := range msgs[start : start+page] {
		views = append(views, m.ViewFor(viewer))
	}

	end := start + page
	if end == count {
		end = -1
	}
	return &MessagesPage{Messages: views, Start: start, End: end}, nil
}

// ListChannelMessages returns one window of a channel's messages. Members
// only.
func (s *MessageService) ListChannelMessages(uID, channelID, start int) (*MessagesPage, error) {
	return s.listMessages(uID, start, func(st *store.State) (domain.Container, error) {
		return channelByID(st, channelID)
	})
}

// ListDMMessages returns one window of a DM's messages. Members only.
func (s *MessageService) ListDMMessages(uID, dmID, start int) (*MessagesPage, error) {
	return s.listMessages(uID, start, func(st *store.State) (domain.Container, error) {
		return dmByID(st, dmID)
	})
}

// listMessages is the single pagination path; container type is a
// parameter, not a fork.
func (s *MessageService) listMessages(uID, start int, resolve func(*store.State) (domain.Container, error)) (*MessagesPage, error) {
	var page *MessagesPage
	err := s.store.View(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		c, err := resolve(st)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, c, authz.View); err != nil {
			return err
		}
		page, err = paginate(uID, c.AllMessages(), start)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// SendToChannel posts a message to a channel the caller can post in.
func (s *MessageService) SendToChannel(uID, channelID int, body string) (int, error) {
	return s.send(uID, body, func(st *store.State) (domain.Container, error) {
		return channelByID(st, channelID)
	})
}

// SendToDM posts a message to a DM the caller can post in.
func (s *MessageService) SendToDM(uID, dmID int, body string) (int, error) {
	return s.send(uID, body, func(st *store.State) (domain.Container, error) {
		return dmByID(st, dmID)
	})
}

func (s *MessageService) send(uID int, body string, resolve func(*store.State) (domain.Container, error)) (int, error) {
	if err := validBody(body); err != nil {
		return 0, err
	}

	var (
		view            domain.MessageView
		channelID, dmID int
		deliveries      []delivery
	)
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		c, err := resolve(st)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, c, authz.Post); err != nil {
			return err
		}
		msg := &domain.Message{
			ID:       st.NewMessageID(),
			AuthorID: uID,
			Body:     body,
			TimeSent: nowUnix(),
		}
		deliveries = placeMessage(st, msg, c)
		view = msg.ViewFor(uID)
		channelID, dmID = containerRef(c)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.announceNew(channelID, dmID, view, deliveries)
	return view.ID, nil
}

// SendLaterToChannel validates and allocates the message id immediately but
// defers insertion until sendAt.
func (s *MessageService) SendLaterToChannel(uID, channelID int, body string, sendAt int64) (int, error) {
	return s.sendLater(uID, body, sendAt, func(st *store.State) (domain.Container, error) {
		return channelByID(st, channelID)
	})
}

// SendLaterToDM is SendLaterToChannel for DMs.
func (s *MessageService) SendLaterToDM(uID, dmID int, body string, sendAt int64) (int, error) {
	return s.sendLater(uID, body, sendAt, func(st *store.State) (domain.Container, error) {
		return dmByID(st, dmID)
	})
}

func (s *MessageService) sendLater(uID int, body string, sendAt int64, resolve func(*store.State) (domain.Container, error)) (int, error) {
	if err := validBody(body); err != nil {
		return 0, err
	}
	if sendAt <= nowUnix() {
		return 0, domain.InvalidInputf("send time is in the past")
	}

	// Authorization, length and id allocation all happen now so errors
	// surface immediately; only the insertion is deferred.
	var msgID int
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		c, err := resolve(st)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, c, authz.Post); err != nil {
			return err
		}
		msgID = st.NewMessageID()
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.sched.Schedule(time.Unix(sendAt, 0), func() {
		s.materialize(uID, msgID, body, sendAt, resolve)
	})
	return msgID, nil
}

// materialize inserts a deferred message once its send time elapses. The
// container may have been removed in the interim; then the message is
// dropped. Insertion re-establishes newest-first order by timestamp, so a
// deferred message never jumps ahead of messages sent after its send time.
func (s *MessageService) materialize(uID, msgID int, body string, sendAt int64, resolve func(*store.State) (domain.Container, error)) {
	var (
		view            domain.MessageView
		channelID, dmID int
		deliveries      []delivery
	)
	err := s.store.Update(func(st *store.State) error {
		c, err := resolve(st)
		if err != nil {
			return err
		}
		msg := &domain.Message{
			ID:       msgID,
			AuthorID: uID,
			Body:     body,
			TimeSent: sendAt,
		}
		deliveries = placeMessage(st, msg, c)
		view = msg.ViewFor(uID)
		channelID, dmID = containerRef(c)
		return nil
	})
	if err != nil {
		s.logger.Warn("deferred message dropped", zap.Int("message_id", msgID), zap.Error(err))
		return
	}
	s.announceNew(channelID, dmID, view, deliveries)
}

// Edit replaces a message's body in place. An empty body is a remove: the
// message leaves its container entirely.
func (s *MessageService) Edit(uID, messageID int, body string) error {
	if utf8.RuneCountInString(body) > domain.MaxMessageLen {
		return domain.InvalidInputf("message must be at most %d characters", domain.MaxMessageLen)
	}
	if body == "" {
		return s.Remove(uID, messageID)
	}

	var (
		view            domain.MessageView
		channelID, dmID int
		deliveries      []delivery
	)
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		msg, c, ok := st.FindMessage(messageID)
		if !ok {
			return domain.InvalidInputf("message %d does not exist", messageID)
		}
		if err := authz.AuthorizeMessage(actor, msg, c); err != nil {
			return err
		}
		msg.Body = body
		deliveries = scanTags(st, actor, c, body)
		view = msg.ViewFor(uID)
		channelID, dmID = containerRef(c)
		return nil
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyEditedMessage(channelID, dmID, view)
	}
	s.deliver(deliveries)
	return nil
}

// Remove deletes a message from its container and moves it to the removed
// record; the id stops resolving.
func (s *MessageService) Remove(uID, messageID int) error {
	var channelID, dmID int
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		msg, c, ok := st.FindMessage(messageID)
		if !ok {
			return domain.InvalidInputf("message %d does not exist", messageID)
		}
		if err := authz.AuthorizeMessage(actor, msg, c); err != nil {
			return err
		}
		taken := c.TakeMessage(messageID)
		st.DropMessage(taken)
		st.WorkspaceStats.MessagesExist = domain.Bump(st.WorkspaceStats.MessagesExist, -1, nowUnix())
		channelID, dmID = containerRef(c)
		return nil
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyDeletedMessage(channelID, dmID, messageID)
	}
	return nil
}

// React adds the caller's react to a message in a container they can view.
func (s *MessageService) React(uID, messageID, reactID int) error {
	var deliveries []delivery
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		msg, c, ok := st.FindMessage(messageID)
		if !ok {
			return domain.InvalidInputf("message %d does not exist", messageID)
		}
		if err := authz.Authorize(actor, c, authz.View); err != nil {
			return err
		}
		if reactID != domain.ReactThumbsUp {
			return domain.InvalidInputf("unknown react %d", reactID)
		}
		if msg.ReactedBy(uID, reactID) {
			return domain.InvalidInputf("user %d already reacted to message %d", uID, messageID)
		}
		msg.AddReact(uID, reactID)
		deliveries = notifyReacted(st, actor, c, msg)
		return nil
	})
	if err != nil {
		return err
	}
	s.deliver(deliveries)
	return nil
}

// Unreact removes a react the caller previously added.
func (s *MessageService) Unreact(uID, messageID, reactID int) error {
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		msg, c, ok := st.FindMessage(messageID)
		if !ok {
			return domain.InvalidInputf("message %d does not exist", messageID)
		}
		if err := authz.Authorize(actor, c, authz.View); err != nil {
			return err
		}
		if reactID != domain.ReactThumbsUp {
			return domain.InvalidInputf("unknown react %d", reactID)
		}
		if !msg.ReactedBy(uID, reactID) {
			return domain.InvalidInputf("user %d has not reacted to message %d", uID, messageID)
		}
		msg.RemoveReact(uID, reactID)
		return nil
	})
}

// Pin marks a message. Requires Moderate on the containing resource.
func (s *MessageService) Pin(uID, messageID int) error {
	return s.setPinned(uID, messageID, true)
}

// Unpin clears the mark. Requires Moderate on the containing resource.
func (s *MessageService) Unpin(uID, messageID int) error {
	return s.setPinned(uID, messageID, false)
}

func (s *MessageService) setPinned(uID, messageID int, pinned bool) error {
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		msg, c, ok := st.FindMessage(messageID)
		if !ok {
			return domain.InvalidInputf("message %d does not exist", messageID)
		}
		if err := authz.Authorize(actor, c, authz.Moderate); err != nil {
			return err
		}
		if msg.IsPinned == pinned {
			if pinned {
				return domain.InvalidInputf("message %d is already pinned", messageID)
			}
			return domain.InvalidInputf("message %d is not pinned", messageID)
		}
		msg.IsPinned = pinned
		return nil
	})
}

// Share copies a message's body, plus an optional addendum, into another
// container as a fresh message. The original is untouched. channelID and
// dmID name the target; exactly one must be valid, the other -1.
func (s *MessageService) Share(uID, ogMessageID int, extra string, channelID, dmID int) (int, error) {
	if utf8.RuneCountInString(extra) > domain.MaxMessageLen {
		return 0, domain.InvalidInputf("message must be at most %d characters", domain.MaxMessageLen)
	}
	if (channelID == -1) == (dmID == -1) {
		return 0, domain.InvalidInputf("exactly one of channel_id and dm_id must be -1")
	}

	var (
		view               domain.MessageView
		targetCh, targetDM int
		deliveries         []delivery
	)
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		og, source, ok := st.FindMessage(ogMessageID)
		if !ok {
			return domain.InvalidInputf("message %d does not exist", ogMessageID)
		}
		if err := authz.Authorize(actor, source, authz.View); err != nil {
			return err
		}
		var target domain.Container
		if channelID != -1 {
			target, err = channelByID(st, channelID)
		} else {
			target, err = dmByID(st, dmID)
		}
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, target, authz.Post); err != nil {
			return err
		}
		msg := &domain.Message{
			ID:       st.NewMessageID(),
			AuthorID: uID,
			Body:     og.Body + extra,
			TimeSent: nowUnix(),
		}
		deliveries = placeMessage(st, msg, target)
		view = msg.ViewFor(uID)
		targetCh, targetDM = containerRef(target)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.announceNew(targetCh, targetDM, view, deliveries)
	return view.ID, nil
}

// Search returns every message containing the query, case-insensitively,
// across all containers the caller belongs to.
func (s *MessageService) Search(uID int, query string) ([]domain.MessageView, error) {
	if n := utf8.RuneCountInString(query); n < 1 || n > domain.MaxMessageLen {
		return nil, domain.InvalidInputf("query must be 1-%d characters", domain.MaxMessageLen)
	}
	needle := strings.ToLower(query)

	out := []domain.MessageView{}
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		match := func(c domain.Container) {
			if !c.HasMember(uID) {
				return
			}
			for _, m := range c.AllMessages() {
				if strings.Contains(strings.ToLower(m.Body), needle) {
					out = append(out, m.ViewFor(uID))
				}
			}
		}
		for _, ch := range st.Channels {
			match(ch)
		}
		for _, dm := range st.DMs {
			match(dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// placeMessage inserts a fully built message into its container: ordered
// insertion, workspace index, usage counters, tag scan. Used by send, the
// deferred-send callback, share and the standup flush.
func placeMessage(st *store.State, msg *domain.Message, c domain.Container) []delivery {
	c.InsertMessage(msg)
	st.IndexMessage(msg.ID, c)

	now := nowUnix()
	stats := st.StatsFor(msg.AuthorID)
	stats.MessagesSent = domain.Bump(stats.MessagesSent, 1, now)
	st.WorkspaceStats.MessagesExist = domain.Bump(st.WorkspaceStats.MessagesExist, 1, now)

	author, ok := st.UserByID(msg.AuthorID)
	if !ok {
		// Author removed between scheduling and materialisation; the
		// message still posts but nobody is around to be the tagger.
		return nil
	}
	return scanTags(st, author, c, msg.Body)
}

// announceNew pushes a freshly placed message over the wire. The view must
// be built inside the store transaction that placed the message: the stored
// message keeps mutating under the lock after commit (reacts, edits), so
// reading it here would race.
func (s *MessageService) announceNew(channelID, dmID int, view domain.MessageView, deliveries []delivery) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyNewMessage(channelID, dmID, view)
	s.deliver(deliveries)
}

func (s *MessageService) deliver(deliveries []delivery) {
	if s.notifier == nil {
		return
	}
	for _, d := range deliveries {
		s.notifier.NotifyNotification(d.uID, d.n)
	}
}

// validBody enforces the 1-1000 character bound. Characters, not bytes: a
// multibyte body counts by runes.
func validBody(body string) error {
	if n := utf8.RuneCountInString(body); n < 1 || n > domain.MaxMessageLen {
		return domain.InvalidInputf("message must be 1-%d characters", domain.MaxMessageLen)
	}
	return nil
}
