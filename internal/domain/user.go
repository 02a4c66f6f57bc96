package domain

import (
	"time"
)

// User roles. Role determines the authorization tier; staff accounts are
// created with RoleAdmin directly.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether s is one of the known roles.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleModerator || s == RoleAdmin
}

// User is the account record. The confirmation code itself is never stored,
// only its bcrypt hash.
type User struct {
	ID             string    `json:"-" db:"id"` // UUID
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	Role           string    `json:"role" db:"role"`
	Bio            string    `json:"bio" db:"bio"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	CodeHash       string    `json:"-" db:"confirmation_code_hash"`
	EmailConfirmed bool      `json:"-" db:"email_confirmed"`
	CreatedAt      time.Time `json:"-" db:"created_at"`
	UpdatedAt      time.Time `json:"-" db:"updated_at"`
}

// IsAdmin reports whether the user sits in the admin tier.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator reports whether the user sits in the moderator tier.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// SignupRequest is the body of POST /auth/signup. Username charset, the
// reserved "me" value and both length bounds are checked by the custom
// validations registered in internal/validate.
type SignupRequest struct {
	Username string `json:"username" validate:"required,rhusername,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// TokenResponse carries the minted access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// CreateUserRequest is the admin body of POST /users. Role is optional and
// defaults to "user".
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,rhusername,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
	Bio       string `json:"bio,omitempty"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=150"`
}

// UpdateUserRequest is the body of PATCH /users/{username} and
// PATCH /users/me. Nil fields are left untouched. Role is honored only for
// admin callers; for everyone else it is ignored.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,rhusername,max=150"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
	Bio       *string `json:"bio,omitempty"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
}
