package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/authz"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

type DMService struct {
	store    *store.Store
	logger   *zap.Logger
	notifier Notifier
}

func NewDMService(st *store.Store, logger *zap.Logger) *DMService {
	return &DMService{store: st, logger: logger}
}

func (s *DMService) SetNotifier(n Notifier) { s.notifier = n }

type DMSummary struct {
	ID   int    `json:"dm_id"`
	Name string `json:"name"`
}

type DMDetails struct {
	Name    string        `json:"name"`
	Members []domain.User `json:"members"`
}

// Create makes a DM between the caller and uIDs. The caller becomes the
// owner; the name is derived from all founding members' handles and frozen.
func (s *DMService) Create(uID int, uIDs []int) (int, error) {
	var dmID int
	var deliveries []delivery
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}

		seen := map[int]bool{uID: true}
		members := []int{uID}
		handles := []string{actor.Handle}
		for _, id := range uIDs {
			if seen[id] {
				return domain.InvalidInputf("duplicate user %d in dm member list", id)
			}
			seen[id] = true
			u, err := targetUserByID(st, id)
			if err != nil {
				return err
			}
			members = append(members, id)
			handles = append(handles, u.Handle)
		}

		dm := &domain.DM{
			ID:      st.NewDMID(),
			Name:    domain.DMName(handles),
			OwnerID: uID,
			Members: members,
		}
		st.DMs[dm.ID] = dm
		dmID = dm.ID

		now := nowUnix()
		for _, id := range members {
			stats := st.StatsFor(id)
			stats.DMsJoined = domain.Bump(stats.DMsJoined, 1, now)
		}
		st.WorkspaceStats.DMsExist = domain.Bump(st.WorkspaceStats.DMsExist, 1, now)

		for _, id := range uIDs {
			deliveries = append(deliveries, notifyAdded(st, actor, dm, id)...)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.deliver(deliveries)
	s.logger.Info("dm created", zap.Int("dm_id", dmID), zap.Int("u_id", uID))
	return dmID, nil
}

// List returns the DMs the caller is a member of.
func (s *DMService) List(uID int) ([]DMSummary, error) {
	out := []DMSummary{}
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		for _, dm := range st.DMs {
			if dm.HasMember(uID) {
				out = append(out, DMSummary{ID: dm.ID, Name: dm.Name})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Details returns the DM's name and resolved member profiles. Members only.
func (s *DMService) Details(uID, dmID int) (*DMDetails, error) {
	var details DMDetails
	err := s.store.View(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		dm, err := dmByID(st, dmID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, dm, authz.View); err != nil {
			return err
		}
		details = DMDetails{
			Name:    dm.Name,
			Members: resolveProfiles(st, dm.Members),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// Leave removes only the caller. The DM survives even when its membership
// empties out; only an explicit Remove deletes it.
func (s *DMService) Leave(uID, dmID int) error {
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		dm, err := dmByID(st, dmID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, dm, authz.View); err != nil {
			return err
		}
		dm.RemoveMember(uID)
		stats := st.StatsFor(uID)
		stats.DMsJoined = domain.Bump(stats.DMsJoined, -1, nowUnix())
		return nil
	})
}

// Remove deletes the DM outright: messages move to the removed record,
// membership clears, and the DM itself moves to the removed-DMs record.
// Only the DM's owner, while still a member, may do this.
func (s *DMService) Remove(uID, dmID int) error {
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		dm, err := dmByID(st, dmID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, dm, authz.Moderate); err != nil {
			return err
		}
		if !dm.HasMember(uID) {
			return domain.Forbiddenf("user %d is no longer in dm %d", uID, dmID)
		}

		now := nowUnix()
		msgs := dm.AllMessages()
		for _, m := range msgs {
			st.DropMessage(m)
		}
		if n := len(msgs); n > 0 {
			st.WorkspaceStats.MessagesExist = domain.Bump(st.WorkspaceStats.MessagesExist, -n, now)
		}
		for _, id := range dm.Members {
			stats := st.StatsFor(id)
			stats.DMsJoined = domain.Bump(stats.DMsJoined, -1, now)
		}
		dm.Members = nil
		dm.Messages = nil
		st.RemovedDMs = append(st.RemovedDMs, *dm)
		delete(st.DMs, dmID)
		st.WorkspaceStats.DMsExist = domain.Bump(st.WorkspaceStats.DMsExist, -1, now)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("dm removed", zap.Int("dm_id", dmID), zap.Int("u_id", uID))
	return nil
}

func (s *DMService) deliver(deliveries []delivery) {
	if s.notifier == nil {
		return
	}
	for _, d := range deliveries {
		s.notifier.NotifyNotification(d.uID, d.n)
	}
}
