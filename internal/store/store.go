package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

// MessageRef locates a message's container. Exactly one of the fields is
// set; ids start at 1 so zero means unset.
type MessageRef struct {
	ChannelID int `json:"channel_id,omitempty"`
	DMID      int `json:"dm_id,omitempty"`
}

// State is the entire workspace: users, channels, DMs, sessions, removal
// records and counters. It is owned by exactly one Store and only ever
// touched inside Update/View.
type State struct {
	Users    map[int]*domain.User    `json:"users"`
	Channels map[int]*domain.Channel `json:"channels"`
	DMs      map[int]*domain.DM      `json:"dms"`

	// Secondary indexes, maintained as invariants on every user mutation.
	EmailIndex  map[string]int `json:"email_index"`
	HandleIndex map[string]int `json:"handle_index"`

	Sessions   map[string]int `json:"sessions"`
	ResetCodes map[string]int `json:"reset_codes"`

	Notifications map[int][]domain.Notification `json:"notifications"`
	Standups      map[int]*domain.Standup       `json:"standups"`

	RemovedUsers    []domain.User    `json:"removed_users"`
	RemovedMessages []domain.Message `json:"removed_messages"`
	RemovedDMs      []domain.DM      `json:"removed_dms"`

	// MessageIndex maps every live message id to its container, so message
	// operations resolve workspace-globally without scanning containers.
	MessageIndex map[int]MessageRef `json:"message_index"`

	UserStats      map[int]*domain.UserStats `json:"user_stats"`
	WorkspaceStats domain.WorkspaceStats     `json:"workspace_stats"`

	NextUserID    int `json:"next_user_id"`
	NextChannelID int `json:"next_channel_id"`
	NextDMID      int `json:"next_dm_id"`
	NextMessageID int `json:"next_message_id"`
}

func NewState() *State {
	return &State{
		Users:         make(map[int]*domain.User),
		Channels:      make(map[int]*domain.Channel),
		DMs:           make(map[int]*domain.DM),
		EmailIndex:    make(map[string]int),
		HandleIndex:   make(map[string]int),
		Sessions:      make(map[string]int),
		ResetCodes:    make(map[string]int),
		Notifications: make(map[int][]domain.Notification),
		Standups:      make(map[int]*domain.Standup),
		MessageIndex:  make(map[int]MessageRef),
		UserStats:     make(map[int]*domain.UserStats),
		NextUserID:    1,
		NextChannelID: 1,
		NextDMID:      1,
		NextMessageID: 1,
	}
}

// The domain structs hide credentials and roles from API JSON
// (User.PasswordHash, User.Permission, DM.OwnerID), but a snapshot without
// them is useless: after a reload nobody could log in and no DM would have
// an owner. State therefore encodes through wrapper types that carry the
// hidden fields explicitly.

type userSnapshot struct {
	domain.User
	PasswordHash string `json:"password_hash"`
	Permission   int    `json:"permission"`
}

func snapUser(u domain.User) userSnapshot {
	return userSnapshot{User: u, PasswordHash: u.PasswordHash, Permission: u.Permission}
}

func (s userSnapshot) user() domain.User {
	u := s.User
	u.PasswordHash = s.PasswordHash
	u.Permission = s.Permission
	return u
}

type dmSnapshot struct {
	domain.DM
	OwnerID int `json:"owner_id"`
}

func snapDM(d domain.DM) dmSnapshot {
	return dmSnapshot{DM: d, OwnerID: d.OwnerID}
}

func (s dmSnapshot) dm() domain.DM {
	d := s.DM
	d.OwnerID = s.OwnerID
	return d
}

// stateAlias strips State's codec methods so the embedded remainder
// marshals field by field.
type stateAlias State

// stateCodec shadows the user and DM collections with their snapshot forms.
// The depth-zero fields win the JSON name conflicts against the embedded
// alias.
type stateCodec struct {
	Users        map[int]userSnapshot `json:"users"`
	DMs          map[int]dmSnapshot   `json:"dms"`
	RemovedUsers []userSnapshot       `json:"removed_users"`
	RemovedDMs   []dmSnapshot         `json:"removed_dms"`
	*stateAlias
}

func (st *State) MarshalJSON() ([]byte, error) {
	aux := stateCodec{stateAlias: (*stateAlias)(st)}

	aux.Users = make(map[int]userSnapshot, len(st.Users))
	for id, u := range st.Users {
		aux.Users[id] = snapUser(*u)
	}
	aux.DMs = make(map[int]dmSnapshot, len(st.DMs))
	for id, d := range st.DMs {
		aux.DMs[id] = snapDM(*d)
	}
	aux.RemovedUsers = make([]userSnapshot, len(st.RemovedUsers))
	for i, u := range st.RemovedUsers {
		aux.RemovedUsers[i] = snapUser(u)
	}
	aux.RemovedDMs = make([]dmSnapshot, len(st.RemovedDMs))
	for i, d := range st.RemovedDMs {
		aux.RemovedDMs[i] = snapDM(d)
	}
	return json.Marshal(aux)
}

func (st *State) UnmarshalJSON(data []byte) error {
	aux := stateCodec{stateAlias: (*stateAlias)(st)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	st.Users = make(map[int]*domain.User, len(aux.Users))
	for id, u := range aux.Users {
		restored := u.user()
		st.Users[id] = &restored
	}
	st.DMs = make(map[int]*domain.DM, len(aux.DMs))
	for id, d := range aux.DMs {
		restored := d.dm()
		st.DMs[id] = &restored
	}
	st.RemovedUsers = make([]domain.User, len(aux.RemovedUsers))
	for i, u := range aux.RemovedUsers {
		st.RemovedUsers[i] = u.user()
	}
	st.RemovedDMs = make([]domain.DM, len(aux.RemovedDMs))
	for i, d := range aux.RemovedDMs {
		st.RemovedDMs[i] = d.dm()
	}
	return nil
}

func (st *State) NewUserID() int {
	id := st.NextUserID
	st.NextUserID++
	return id
}

func (st *State) NewChannelID() int {
	id := st.NextChannelID
	st.NextChannelID++
	return id
}

func (st *State) NewDMID() int {
	id := st.NextDMID
	st.NextDMID++
	return id
}

// NewMessageID allocates from the single counter shared by channels and
// DMs, so no two messages anywhere in the workspace collide.
func (st *State) NewMessageID() int {
	id := st.NextMessageID
	st.NextMessageID++
	return id
}

func (st *State) UserByID(id int) (*domain.User, bool) {
	u, ok := st.Users[id]
	return u, ok
}

func (st *State) UserByEmail(email string) (*domain.User, bool) {
	id, ok := st.EmailIndex[email]
	if !ok {
		return nil, false
	}
	return st.Users[id], true
}

func (st *State) UserByHandle(handle string) (*domain.User, bool) {
	id, ok := st.HandleIndex[handle]
	if !ok {
		return nil, false
	}
	return st.Users[id], true
}

// RemovedUserByID resolves soft-deleted users for historical attribution.
func (st *State) RemovedUserByID(id int) (*domain.User, bool) {
	for i := range st.RemovedUsers {
		if st.RemovedUsers[i].ID == id {
			return &st.RemovedUsers[i], true
		}
	}
	return nil, false
}

// FindMessage resolves a live message id to the message and its container.
func (st *State) FindMessage(id int) (*domain.Message, domain.Container, bool) {
	ref, ok := st.MessageIndex[id]
	if !ok {
		return nil, nil, false
	}
	var c domain.Container
	if ref.ChannelID != 0 {
		c = st.Channels[ref.ChannelID]
	} else {
		c = st.DMs[ref.DMID]
	}
	for _, m := range c.AllMessages() {
		if m.ID == id {
			return m, c, true
		}
	}
	return nil, nil, false
}

// IndexMessage records where a newly inserted message lives.
func (st *State) IndexMessage(id int, c domain.Container) {
	switch v := c.(type) {
	case *domain.Channel:
		st.MessageIndex[id] = MessageRef{ChannelID: v.ID}
	case *domain.DM:
		st.MessageIndex[id] = MessageRef{DMID: v.ID}
	}
}

// DropMessage moves a message out of the live index into the removed
// record. Subsequent operations on the id see NotFound.
func (st *State) DropMessage(m *domain.Message) {
	delete(st.MessageIndex, m.ID)
	st.RemovedMessages = append(st.RemovedMessages, *m)
}

// StatsFor returns the user's stats record, creating it on first use.
func (st *State) StatsFor(uID int) *domain.UserStats {
	s, ok := st.UserStats[uID]
	if !ok {
		s = &domain.UserStats{}
		st.UserStats[uID] = s
	}
	return s
}

// RevokeSessionsOf drops every active session belonging to uID.
func (st *State) RevokeSessionsOf(uID int) {
	for sid, id := range st.Sessions {
		if id == uID {
			delete(st.Sessions, sid)
		}
	}
}

// Store owns the workspace state. All reads and writes, including deferred
// task callbacks, serialize on one mutex; after every successful update the
// whole state is snapshotted and handed to the persister fire-and-forget.
type Store struct {
	mu        sync.Mutex
	logger    *zap.Logger
	persister Persister
	state     *State
}

func New(logger *zap.Logger, persister Persister) *Store {
	return &Store{
		logger:    logger,
		persister: persister,
		state:     NewState(),
	}
}

// Load replaces the state with the persisted snapshot, if one exists.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	data, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	if data == nil {
		return nil
	}
	st := NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.logger.Info("workspace snapshot loaded",
		zap.Int("users", len(st.Users)),
		zap.Int("channels", len(st.Channels)),
		zap.Int("dms", len(st.DMs)),
	)
	return nil
}

// View runs fn with shared access to the state. fn must not retain
// references past its return.
func (s *Store) View(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Update runs fn under the lock and, when fn succeeds, snapshots the state
// and persists it asynchronously. A failed fn must leave the state
// untouched; every mutation validates before writing any field.
func (s *Store) Update(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.state); err != nil {
		return err
	}
	s.persistLocked()
	return nil
}

// Clear wipes the workspace back to empty. Used by tooling and tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NewState()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("snapshot encode failed", zap.Error(err))
		return
	}
	go func() {
		if err := s.persister.Save(context.Background(), data); err != nil {
			s.logger.Error("snapshot save failed", zap.Error(err))
		}
	}()
}
