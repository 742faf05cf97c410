// Package authz is the single decision point for who may see or mutate
// what. Every service routes its access checks through here; none of them
// re-implements a membership rule.
package authz

import (
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/domain"
)

// Level is the access required for an operation.
type Level int

const (
	// View: read messages, react, see details.
	View Level = iota + 1
	// Post: create messages in the container.
	Post
	// Moderate: edit or remove others' content, pin/unpin, manage owners.
	Moderate
	// GlobalAdmin: workspace-wide user administration.
	GlobalAdmin
)

// Authorize decides whether actor holds lvl on container c. Resource
// existence is the caller's concern; c must be non-nil.
//
// Moderate is asymmetric between channels and DMs: inside a channel a
// global owner who is a member moderates like a channel owner, inside a DM
// only the DM creator moderates, global owner or not.
func Authorize(actor *domain.User, c domain.Container, lvl Level) error {
	switch lvl {
	case View, Post:
		if c.HasMember(actor.ID) {
			return nil
		}
		return domain.Forbiddenf("user %d is not a member", actor.ID)

	case Moderate:
		switch v := c.(type) {
		case *domain.Channel:
			if v.HasOwner(actor.ID) {
				return nil
			}
			if actor.Permission == domain.PermOwner && v.HasMember(actor.ID) {
				return nil
			}
			return domain.Forbiddenf("user %d has no owner permissions in channel %d", actor.ID, v.ID)
		case *domain.DM:
			if v.OwnerID == actor.ID {
				return nil
			}
			return domain.Forbiddenf("user %d is not the owner of dm %d", actor.ID, v.ID)
		}
	}
	return RequireGlobalAdmin(actor)
}

// AuthorizeMessage decides whether actor may mutate msg inside c: the
// author always may, anyone else needs Moderate on the container.
func AuthorizeMessage(actor *domain.User, msg *domain.Message, c domain.Container) error {
	if msg.AuthorID == actor.ID {
		return nil
	}
	return Authorize(actor, c, Moderate)
}

// CanJoin is its own rule, not a View check: anyone joins a public channel,
// only a global owner joins a private one uninvited.
func CanJoin(actor *domain.User, ch *domain.Channel) error {
	if ch.IsPublic || actor.Permission == domain.PermOwner {
		return nil
	}
	return domain.Forbiddenf("channel %d is private", ch.ID)
}

// RequireGlobalAdmin gates workspace administration.
func RequireGlobalAdmin(actor *domain.User) error {
	if actor.Permission == domain.PermOwner {
		return nil
	}
	return domain.Forbiddenf("user %d is not a global owner", actor.ID)
}
