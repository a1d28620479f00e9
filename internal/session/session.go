package session

import (
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
)

// State is the session lifecycle. Unknown only exists before the first
// Hydrate; every transition after that lands on one of the other two.
type State int

const (
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the authenticated identity. The token pair lives in the
// TokenStore so the gateway can swap it without touching identity state.
type Session struct {
	UserID      datamodel.ID
	Username    string
	DisplayName string
	Email       string
	Phone       string
	Role        datamodel.Role
}
