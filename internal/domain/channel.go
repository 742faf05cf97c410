package domain

// Channel is a named container with an owner set. Owners and members hold
// user ids only; user records live in the store's user map. Every owner is
// also a member.
type Channel struct {
	ID       int        `json:"channel_id"`
	Name     string     `json:"name"`
	IsPublic bool       `json:"is_public"`
	Owners   []int      `json:"owner_members"`
	Members  []int      `json:"all_members"`
	Messages []*Message `json:"messages"`
}

func (c *Channel) ContainerName() string { return c.Name }

func (c *Channel) HasMember(uID int) bool { return containsID(c.Members, uID) }

func (c *Channel) HasOwner(uID int) bool { return containsID(c.Owners, uID) }

func (c *Channel) MemberIDs() []int { return c.Members }

func (c *Channel) AddMember(uID int) { c.Members = append(c.Members, uID) }

func (c *Channel) AddOwner(uID int) { c.Owners = append(c.Owners, uID) }

func (c *Channel) RemoveMember(uID int) {
	c.Members = removeID(c.Members, uID)
	c.Owners = removeID(c.Owners, uID)
}

func (c *Channel) RemoveOwner(uID int) { c.Owners = removeID(c.Owners, uID) }

func (c *Channel) AllMessages() []*Message { return c.Messages }

func (c *Channel) InsertMessage(m *Message) { c.Messages = insertByTime(c.Messages, m) }

func (c *Channel) TakeMessage(id int) *Message {
	seq, m := takeMessage(c.Messages, id)
	c.Messages = seq
	return m
}
