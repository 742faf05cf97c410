package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/authz"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/scheduler"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

// StandupService buffers messages during a standup window and flushes them
// as one summary message from the starter when the window closes.
type StandupService struct {
	store    *store.Store
	logger   *zap.Logger
	sched    *scheduler.Scheduler
	notifier Notifier
}

func NewStandupService(st *store.Store, sched *scheduler.Scheduler, logger *zap.Logger) *StandupService {
	return &StandupService{store: st, sched: sched, logger: logger}
}

func (s *StandupService) SetNotifier(n Notifier) { s.notifier = n }

// Start opens a standup in the channel for length seconds. One active
// standup per channel.
func (s *StandupService) Start(uID, channelID int, length int64) (int64, error) {
	if length <= 0 {
		return 0, domain.InvalidInputf("standup length must be positive")
	}

	var finish int64
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, ch, authz.View); err != nil {
			return err
		}
		if _, active := st.Standups[channelID]; active {
			return domain.InvalidInputf("a standup is already active in channel %d", channelID)
		}
		finish = nowUnix() + length
		st.Standups[channelID] = &domain.Standup{
			ChannelID:  channelID,
			StarterID:  uID,
			TimeFinish: finish,
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.sched.Schedule(time.Unix(finish, 0), func() { s.flush(channelID) })
	return finish, nil
}

// Active reports whether a standup is running and when it finishes.
func (s *StandupService) Active(uID, channelID int) (isActive bool, timeFinish int64, err error) {
	err = s.store.View(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, ch, authz.View); err != nil {
			return err
		}
		if su, ok := st.Standups[channelID]; ok {
			isActive = true
			timeFinish = su.TimeFinish
		}
		return nil
	})
	return isActive, timeFinish, err
}

// Send buffers a line into the active standup. Lines are attributed by
// handle and joined into one message at flush time.
func (s *StandupService) Send(uID, channelID int, message string) error {
	if n := utf8.RuneCountInString(message); n < 1 || n > domain.MaxMessageLen {
		return domain.InvalidInputf("message must be 1-%d characters", domain.MaxMessageLen)
	}
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, ch, authz.Post); err != nil {
			return err
		}
		su, ok := st.Standups[channelID]
		if !ok {
			return domain.InvalidInputf("no standup is active in channel %d", channelID)
		}
		su.Buffer = append(su.Buffer, fmt.Sprintf("%s: %s", actor.Handle, message))
		return nil
	})
}

// flush closes the standup and posts the joined buffer as a single message
// from the starter. An empty buffer posts nothing. The starter may have
// left or lost permissions since starting; the summary posts regardless.
func (s *StandupService) flush(channelID int) {
	var (
		posted     bool
		view       domain.MessageView
		deliveries []delivery
	)
	err := s.store.Update(func(st *store.State) error {
		su, ok := st.Standups[channelID]
		if !ok {
			return nil
		}
		delete(st.Standups, channelID)

		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if len(su.Buffer) == 0 {
			return nil
		}
		msg := &domain.Message{
			ID:       st.NewMessageID(),
			AuthorID: su.StarterID,
			Body:     strings.Join(su.Buffer, "\n"),
			TimeSent: su.TimeFinish,
		}
		deliveries = placeMessage(st, msg, ch)
		// Viewed under the lock; the stored message can mutate as soon as
		// the update commits.
		view = msg.ViewFor(msg.AuthorID)
		posted = true
		return nil
	})
	if err != nil {
		s.logger.Warn("standup flush failed", zap.Int("channel_id", channelID), zap.Error(err))
		return
	}
	if !posted || s.notifier == nil {
		return
	}
	s.notifier.NotifyNewMessage(channelID, -1, view)
	for _, d := range deliveries {
		s.notifier.NotifyNotification(d.uID, d.n)
	}
}
