package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

type User struct {
	ID           string     `json:"_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Avatar       string     `json:"avatar,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) Validate() error {
	if n := len(u.Username); n < 3 || n > 30 {
		return fmt.Errorf("%w: username must be 3-30 chars", ErrInvalidRequest)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrInvalidRequest)
	}
	if u.FirstName == "" || u.LastName == "" {
		return fmt.Errorf("%w: first and last name required", ErrInvalidRequest)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, u.Role)
	}
	return nil
}

// IsAdmin reports whether the user may act on resources they do not own.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
