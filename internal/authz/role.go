package authz

import (
	"fmt"

	"github.com/SAP-F-2025/school-service/internal/models"
)

// Role is the closed set of actor roles. The zero value is an anonymous caller.
type Role int

const (
	RoleAnonymous Role = iota
	RoleAdmin
	RoleTeacher
	RoleStudent
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return string(models.RoleAdmin)
	case RoleTeacher:
		return string(models.RoleTeacher)
	case RoleStudent:
		return string(models.RoleStudent)
	default:
		return "anonymous"
	}
}

// ParseRole maps a stored role tag onto the variant.
func ParseRole(role models.UserRole) (Role, error) {
	switch role {
	case models.RoleAdmin:
		return RoleAdmin, nil
	case models.RoleTeacher:
		return RoleTeacher, nil
	case models.RoleStudent:
		return RoleStudent, nil
	default:
		return RoleAnonymous, fmt.Errorf("unknown role %q", role)
	}
}

// Actor is the identity making a request.
type Actor struct {
	ID   uint
	Role Role
}

// Anonymous returns an unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

// ActorFromUser builds an actor from a stored user.
func ActorFromUser(u *models.User) (Actor, error) {
	if u == nil {
		return Anonymous(), nil
	}
	role, err := ParseRole(u.Role)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: u.ID, Role: role}, nil
}

func (a Actor) Authenticated() bool {
	return a.Role != RoleAnonymous
}
