// Package policy maps (method, path) pairs to the access requirement that
// guards them. Patterns are compiled once into segment matchers; lookups never
// compare string prefixes.
package policy

import (
	"fmt"
	"strings"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// Level is the kind of check a route demands.
type Level int

const (
	LevelAuthenticated Level = iota
	LevelPublic
	LevelRole
)

// Requirement is PUBLIC, AUTHENTICATED or ROLE(r). The zero value is
// AUTHENTICATED so an unset requirement never opens a route.
type Requirement struct {
	Level Level
	Role  domain.Role
}

var (
	Public        = Requirement{Level: LevelPublic}
	Authenticated = Requirement{Level: LevelAuthenticated}
)

// RequireRole builds a ROLE(r) requirement.
func RequireRole(r domain.Role) Requirement {
	return Requirement{Level: LevelRole, Role: r}
}

func (r Requirement) String() string {
	switch r.Level {
	case LevelPublic:
		return "public"
	case LevelRole:
		return "role:" + string(r.Role)
	default:
		return "authenticated"
	}
}

// ParseRequirement reads "public", "authenticated" or "role:<ROLE>".
func ParseRequirement(s string) (Requirement, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "public":
		return Public, nil
	case "authenticated":
		return Authenticated, nil
	}
	if name, ok := strings.CutPrefix(strings.ToLower(v), "role:"); ok {
		role, err := domain.ParseRole(name)
		if err != nil {
			return Requirement{}, err
		}
		return RequireRole(role), nil
	}
	return Requirement{}, fmt.Errorf("unknown access requirement %q", s)
}
