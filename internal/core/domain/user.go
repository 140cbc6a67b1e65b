package domain

import (
	"strings"
	"time"
)

// Role is a privilege level. Roles are totally ordered: USER < ADMIN < GOD.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleGod   Role = "GOD"
)

// roleTransitions defines the legal role changes. GOD never appears on either
// side: GOD assignments happen out of band.
var roleTransitions = map[Role][]Role{
	RoleUser:  {RoleAdmin},
	RoleAdmin: {RoleUser},
}

// ParseRole converts a case-insensitive role name into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleUser, RoleAdmin, RoleGod:
		return r, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// Rank returns the position of r in the privilege order, or -1 when unknown.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 0
	case RoleAdmin:
		return 1
	case RoleGod:
		return 2
	}
	return -1
}

// AtLeast reports whether r grants at least the privileges of other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= 0 && r.Rank() >= other.Rank()
}

// CanTransitionTo reports whether a role change from r to next is legal.
func (r Role) CanTransitionTo(next Role) bool {
	for _, allowed := range roleTransitions[r] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Identity is one account known to the authority.
type Identity struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RegistrationRequest carries everything needed to create an account. Email
// doubles as the username.
type RegistrationRequest struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        Role
}
