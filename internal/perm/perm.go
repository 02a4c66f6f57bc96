// Package perm contains the authorization decisions. Each predicate is a pure
// function over the actor's role and, where relevant, resource ownership; the
// HTTP layer calls them before any mutation and maps a false result to 403.
package perm

import (
	"reviewhub/internal/domain"
)

// Actor is the authenticated caller as recovered from the access token.
// A nil *Actor means the request is anonymous.
type Actor struct {
	UserID string
	Role   string
}

// ActorFor adapts a stored user record.
func ActorFor(u *domain.User) *Actor {
	return &Actor{UserID: u.ID, Role: u.Role}
}

func (a *Actor) isAdmin() bool {
	return a != nil && a.Role == domain.RoleAdmin
}

func (a *Actor) isModerator() bool {
	return a != nil && a.Role == domain.RoleModerator
}

// CanManageUsers gates the /users collection: listing, creating, updating and
// deleting arbitrary accounts. Admin tier only.
func CanManageUsers(a *Actor) bool {
	return a.isAdmin()
}

// CanMutateCatalog gates writes to categories, genres and titles. Reads are
// public and never consult this.
func CanMutateCatalog(a *Actor) bool {
	return a.isAdmin()
}

// CanCreateContent gates review and comment creation: any authenticated
// actor.
func CanCreateContent(a *Actor) bool {
	return a != nil
}

// CanModifyContent gates update/delete of a review or comment owned by
// authorID: the author themselves, a moderator, or an admin.
func CanModifyContent(a *Actor, authorID string) bool {
	if a == nil {
		return false
	}
	return a.UserID == authorID || a.isAdmin() || a.isModerator()
}

// CanChangeRole reports whether the actor may set account roles. Non-admin
// callers of /users/me have the role field ignored rather than rejected.
func CanChangeRole(a *Actor) bool {
	return a.isAdmin()
}
