package actor

import (
	"strings"

	"tradecore/internal/domain/apperr"
)

// System performs transitions nobody asked for directly, such as auto-approval.
const System = "system"

// Actor is the authenticated caller: a username and the role they act under.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func New(name, role string) Actor {
	return Actor{Name: strings.TrimSpace(name), Role: strings.ToUpper(strings.TrimSpace(role))}
}

// Require fails with apperr.ErrUnauthorized when no username was supplied.
func (a Actor) Require() error {
	if a.Name == "" {
		return apperr.ErrUnauthorized
	}
	return nil
}
