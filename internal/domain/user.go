package domain

// Global permission levels. The first registered user becomes the global
// owner; everyone after that starts as a member.
const (
	PermOwner  = 1
	PermMember = 2
)

type User struct {
	ID              int    `json:"u_id"`
	Email           string `json:"email"`
	NameFirst       string `json:"name_first"`
	NameLast        string `json:"name_last"`
	Handle          string `json:"handle_str"`
	PasswordHash    string `json:"-"`
	Permission      int    `json:"-"`
	ProfileImageURL string `json:"profile_img_url,omitempty"`
}

// Redacted name parts for a removed user. The id stays resolvable for
// historical message attribution.
const (
	RedactedNameFirst = "Removed"
	RedactedNameLast  = "user"
)

// Redacted returns the removed-users record for u: id kept, name redacted,
// email and handle emptied.
func (u *User) Redacted() User {
	return User{
		ID:        u.ID,
		NameFirst: RedactedNameFirst,
		NameLast:  RedactedNameLast,
	}
}
