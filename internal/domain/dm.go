package domain

import (
	"sort"
	"strings"
)

// DM is always private and keeps the name it was given at creation time,
// derived from the founding members' handles. Only the creator owns it; the
// global owner gets no special rights inside a DM.
type DM struct {
	ID       int        `json:"dm_id"`
	Name     string     `json:"name"`
	OwnerID  int        `json:"-"`
	Members  []int      `json:"members"`
	Messages []*Message `json:"messages"`
}

// DMName derives the frozen DM name: the members' handles sorted
// alphabetically and comma-joined.
func DMName(handles []string) string {
	sorted := make([]string, len(handles))
	copy(sorted, handles)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

func (d *DM) ContainerName() string { return d.Name }

func (d *DM) HasMember(uID int) bool { return containsID(d.Members, uID) }

func (d *DM) MemberIDs() []int { return d.Members }

func (d *DM) RemoveMember(uID int) { d.Members = removeID(d.Members, uID) }

func (d *DM) AllMessages() []*Message { return d.Messages }

func (d *DM) InsertMessage(m *Message) { d.Messages = insertByTime(d.Messages, m) }

func (d *DM) TakeMessage(id int) *Message {
	seq, m := takeMessage(d.Messages, id)
	d.Messages = seq
	return m
}
