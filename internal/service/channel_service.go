package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/authz"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

const (
	minChannelNameLen = 1
	maxChannelNameLen = 20
)

type ChannelService struct {
	store    *store.Store
	logger   *zap.Logger
	notifier Notifier
}

func NewChannelService(st *store.Store, logger *zap.Logger) *ChannelService {
	return &ChannelService{store: st, logger: logger}
}

func (s *ChannelService) SetNotifier(n Notifier) { s.notifier = n }

// ChannelSummary is the list-view shape: id and name only.
type ChannelSummary struct {
	ID   int    `json:"channel_id"`
	Name string `json:"name"`
}

// ChannelDetails resolves member ids to profiles for the details view.
type ChannelDetails struct {
	Name     string        `json:"name"`
	IsPublic bool          `json:"is_public"`
	Owners   []domain.User `json:"owner_members"`
	Members  []domain.User `json:"all_members"`
}

// Create makes a new channel with the creator as its sole owner and member.
func (s *ChannelService) Create(uID int, name string, isPublic bool) (int, error) {
	if len(name) < minChannelNameLen || len(name) > maxChannelNameLen {
		return 0, domain.InvalidInputf("channel name must be %d-%d characters", minChannelNameLen, maxChannelNameLen)
	}

	var chID int
	err := s.store.Update(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		ch := &domain.Channel{
			ID:       st.NewChannelID(),
			Name:     name,
			IsPublic: isPublic,
			Owners:   []int{uID},
			Members:  []int{uID},
		}
		st.Channels[ch.ID] = ch
		chID = ch.ID

		now := nowUnix()
		stats := st.StatsFor(uID)
		stats.ChannelsJoined = domain.Bump(stats.ChannelsJoined, 1, now)
		st.WorkspaceStats.ChannelsExist = domain.Bump(st.WorkspaceStats.ChannelsExist, 1, now)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("channel created", zap.Int("channel_id", chID), zap.Int("u_id", uID))
	return chID, nil
}

// ListJoined returns the channels the user is a member of.
func (s *ChannelService) ListJoined(uID int) ([]ChannelSummary, error) {
	return s.list(uID, true)
}

// ListAll returns every channel, joined or not, public or private.
func (s *ChannelService) ListAll(uID int) ([]ChannelSummary, error) {
	return s.list(uID, false)
}

func (s *ChannelService) list(uID int, joinedOnly bool) ([]ChannelSummary, error) {
	out := []ChannelSummary{}
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		for _, ch := range st.Channels {
			if joinedOnly && !ch.HasMember(uID) {
				continue
			}
			out = append(out, ChannelSummary{ID: ch.ID, Name: ch.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Details returns the channel's name, visibility and resolved member lists.
// Members only.
func (s *ChannelService) Details(uID, channelID int) (*ChannelDetails, error) {
	var details ChannelDetails
	err := s.store.View(func(st *store.State) error {
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
		details = ChannelDetails{
			Name:     ch.Name,
			IsPublic: ch.IsPublic,
			Owners:   resolveProfiles(st, ch.Owners),
			Members:  resolveProfiles(st, ch.Members),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// Join adds the caller to a channel they can see their way into: public, or
// private with global owner permission. Join is its own rule, not a View
// check.
func (s *ChannelService) Join(uID, channelID int) error {
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if ch.HasMember(uID) {
			return domain.InvalidInputf("user %d is already a member of channel %d", uID, channelID)
		}
		if err := authz.CanJoin(actor, ch); err != nil {
			return err
		}
		ch.AddMember(uID)
		bumpChannelsJoined(st, uID, 1)
		return nil
	})
}

// Invite adds target to the channel. Any member may invite; the invited
// user gets a notification.
func (s *ChannelService) Invite(uID, channelID, targetID int) error {
	var deliveries []delivery
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if _, err := targetUserByID(st, targetID); err != nil {
			return err
		}
		if ch.HasMember(targetID) {
			return domain.InvalidInputf("user %d is already a member of channel %d", targetID, channelID)
		}
		if err := authz.Authorize(actor, ch, authz.View); err != nil {
			return err
		}
		ch.AddMember(targetID)
		bumpChannelsJoined(st, targetID, 1)
		deliveries = notifyAdded(st, actor, ch, targetID)
		return nil
	})
	if err != nil {
		return err
	}
	s.deliver(deliveries)
	return nil
}

// Leave removes the caller from members and owners. The starter of an
// active standup cannot leave until it flushes.
func (s *ChannelService) Leave(uID, channelID int) error {
	return s.store.Update(func(st *store.State) error {
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
		if su, ok := st.Standups[channelID]; ok && su.StarterID == uID {
			return domain.InvalidInputf("user %d started the active standup in channel %d", uID, channelID)
		}
		ch.RemoveMember(uID)
		bumpChannelsJoined(st, uID, -1)
		return nil
	})
}

// AddOwner promotes an existing member to channel owner. Requires Moderate
// on the channel.
func (s *ChannelService) AddOwner(uID, channelID, targetID int) error {
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if _, err := targetUserByID(st, targetID); err != nil {
			return err
		}
		if err := authz.Authorize(actor, ch, authz.Moderate); err != nil {
			return err
		}
		if !ch.HasMember(targetID) {
			return domain.InvalidInputf("user %d is not a member of channel %d", targetID, channelID)
		}
		if ch.HasOwner(targetID) {
			return domain.InvalidInputf("user %d is already an owner of channel %d", targetID, channelID)
		}
		ch.AddOwner(targetID)
		return nil
	})
}

// RemoveOwner demotes a channel owner. The sole owner cannot be demoted.
func (s *ChannelService) RemoveOwner(uID, channelID, targetID int) error {
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		ch, err := channelByID(st, channelID)
		if err != nil {
			return err
		}
		if _, err := targetUserByID(st, targetID); err != nil {
			return err
		}
		if err := authz.Authorize(actor, ch, authz.Moderate); err != nil {
			return err
		}
		if !ch.HasOwner(targetID) {
			return domain.InvalidInputf("user %d is not an owner of channel %d", targetID, channelID)
		}
		if len(ch.Owners) == 1 {
			return domain.InvalidInputf("user %d is the only owner of channel %d", targetID, channelID)
		}
		ch.RemoveOwner(targetID)
		return nil
	})
}

func (s *ChannelService) deliver(deliveries []delivery) {
	if s.notifier == nil {
		return
	}
	for _, d := range deliveries {
		s.notifier.NotifyNotification(d.uID, d.n)
	}
}

func bumpChannelsJoined(st *store.State, uID, delta int) {
	stats := st.StatsFor(uID)
	stats.ChannelsJoined = domain.Bump(stats.ChannelsJoined, delta, nowUnix())
}

func resolveProfiles(st *store.State, ids []int) []domain.User {
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := st.UserByID(id); ok {
			out = append(out, *u)
		}
	}
	return out
}
