package service

import (
	"net/mail"
	"unicode"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/authz"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
)

type UserService struct {
	store  *store.Store
	logger *zap.Logger
}

func NewUserService(st *store.Store, logger *zap.Logger) *UserService {
	return &UserService{store: st, logger: logger}
}

// Profile returns any user's profile by id. Removed users stay resolvable
// with redacted fields, so historical messages keep an author to show.
func (s *UserService) Profile(uID, targetID int) (*domain.User, error) {
	var profile domain.User
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		if u, ok := st.UserByID(targetID); ok {
			profile = *u
			return nil
		}
		if u, ok := st.RemovedUserByID(targetID); ok {
			profile = *u
			return nil
		}
		return domain.InvalidInputf("user %d does not exist", targetID)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListAll returns every active user. Removed users are excluded.
func (s *UserService) ListAll(uID int) ([]domain.User, error) {
	var users []domain.User
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		users = make([]domain.User, 0, len(st.Users))
		for _, u := range st.Users {
			users = append(users, *u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserService) SetName(uID int, nameFirst, nameLast string) error {
	if len(nameFirst) < 1 || len(nameFirst) > maxNameLen {
		return domain.InvalidInputf("first name must be 1-%d characters", maxNameLen)
	}
	if len(nameLast) < 1 || len(nameLast) > maxNameLen {
		return domain.InvalidInputf("last name must be 1-%d characters", maxNameLen)
	}
	return s.store.Update(func(st *store.State) error {
		user, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		user.NameFirst = nameFirst
		user.NameLast = nameLast
		return nil
	})
}

func (s *UserService) SetEmail(uID int, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.InvalidInputf("invalid email address")
	}
	return s.store.Update(func(st *store.State) error {
		user, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		if owner, taken := st.UserByEmail(email); taken && owner.ID != uID {
			return domain.InvalidInputf("email already in use")
		}
		delete(st.EmailIndex, user.Email)
		user.Email = email
		st.EmailIndex[email] = uID
		return nil
	})
}

func (s *UserService) SetHandle(uID int, handle string) error {
	if len(handle) < 3 || len(handle) > 20 {
		return domain.InvalidInputf("handle must be 3-20 characters")
	}
	for _, r := range handle {
		if !(unicode.IsLower(r) && r <= unicode.MaxASCII || unicode.IsDigit(r)) {
			return domain.InvalidInputf("handle must be lowercase alphanumeric")
		}
	}
	return s.store.Update(func(st *store.State) error {
		user, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		if owner, taken := st.UserByHandle(handle); taken && owner.ID != uID {
			return domain.InvalidInputf("handle already in use")
		}
		delete(st.HandleIndex, user.Handle)
		user.Handle = handle
		st.HandleIndex[handle] = uID
		return nil
	})
}

type UserStatsResponse struct {
	Stats       domain.UserStats `json:"user_stats"`
	Involvement float64          `json:"involvement_rate"`
}

func (s *UserService) Stats(uID int) (*UserStatsResponse, error) {
	var resp UserStatsResponse
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		stats := st.StatsFor(uID)
		resp.Stats = *stats
		resp.Involvement = stats.Involvement(&st.WorkspaceStats)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

type WorkspaceStatsResponse struct {
	Stats       domain.WorkspaceStats `json:"workspace_stats"`
	Utilization float64               `json:"utilization_rate"`
}

func (s *UserService) WorkspaceStats(uID int) (*WorkspaceStatsResponse, error) {
	var resp WorkspaceStatsResponse
	err := s.store.View(func(st *store.State) error {
		if _, err := actorByID(st, uID); err != nil {
			return err
		}
		resp.Stats = st.WorkspaceStats

		active := 0
		for id := range st.Users {
			if userInAnyContainer(st, id) {
				active++
			}
		}
		if len(st.Users) > 0 {
			resp.Utilization = float64(active) / float64(len(st.Users))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func userInAnyContainer(st *store.State, uID int) bool {
	for _, ch := range st.Channels {
		if ch.HasMember(uID) {
			return true
		}
	}
	for _, dm := range st.DMs {
		if dm.HasMember(uID) {
			return true
		}
	}
	return false
}

// ChangePermission sets a user's global permission level. Global admins
// only; demoting the last global owner is rejected.
func (s *UserService) ChangePermission(uID, targetID, permission int) error {
	if permission != domain.PermOwner && permission != domain.PermMember {
		return domain.InvalidInputf("invalid permission level %d", permission)
	}
	return s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		if err := authz.RequireGlobalAdmin(actor); err != nil {
			return err
		}
		target, err := targetUserByID(st, targetID)
		if err != nil {
			return err
		}
		if target.Permission == permission {
			return domain.InvalidInputf("user %d already has permission level %d", targetID, permission)
		}
		if target.Permission == domain.PermOwner && countGlobalOwners(st) == 1 {
			return domain.InvalidInputf("cannot demote the only global owner")
		}
		target.Permission = permission
		return nil
	})
}

// Remove strikes a user from the workspace: every message they authored is
// redacted in place, they are dropped from all memberships and owner sets,
// their sessions die, and the user record moves to the removed-users list.
func (s *UserService) Remove(uID, targetID int) error {
	err := s.store.Update(func(st *store.State) error {
		actor, err := actorByID(st, uID)
		if err != nil {
			return err
		}
		if err := authz.RequireGlobalAdmin(actor); err != nil {
			return err
		}
		target, err := targetUserByID(st, targetID)
		if err != nil {
			return err
		}
		if target.Permission == domain.PermOwner && countGlobalOwners(st) == 1 {
			return domain.InvalidInputf("cannot remove the only global owner")
		}

		for _, ch := range st.Channels {
			if !ch.HasMember(targetID) {
				continue
			}
			redactAuthoredBy(ch, targetID)
			ch.RemoveMember(targetID)
		}
		for _, dm := range st.DMs {
			if !dm.HasMember(targetID) {
				continue
			}
			redactAuthoredBy(dm, targetID)
			dm.RemoveMember(targetID)
		}

		st.RevokeSessionsOf(targetID)
		delete(st.Notifications, targetID)
		delete(st.EmailIndex, target.Email)
		delete(st.HandleIndex, target.Handle)
		st.RemovedUsers = append(st.RemovedUsers, target.Redacted())
		delete(st.Users, targetID)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("user removed from workspace", zap.Int("u_id", targetID))
	return nil
}

func redactAuthoredBy(c domain.Container, uID int) {
	for _, m := range c.AllMessages() {
		if m.AuthorID == uID {
			m.Body = domain.RedactedBody
		}
	}
}

func countGlobalOwners(st *store.State) int {
	n := 0
	for _, u := range st.Users {
		if u.Permission == domain.PermOwner {
			n++
		}
	}
	return n
}
