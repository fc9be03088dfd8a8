package service

import "github.com/99minutos/reservation-console/internal/core/domain"

// Decision is the access guard's verdict for a guarded subtree.
type Decision int

const (
	DecisionRender Decision = iota
	DecisionMustLogin
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionRender:
		return "render"
	case DecisionMustLogin:
		return "must_login"
	case DecisionForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Decide gates a subtree on the session's role. An empty allowed list
// admits any authenticated session.
func Decide(s domain.Session, allowed []domain.Role) Decision {
	if s.Identity == nil || s.Token == "" {
		return DecisionMustLogin
	}
	if len(allowed) == 0 {
		return DecisionRender
	}
	for _, r := range allowed {
		if s.Identity.Role == r {
			return DecisionRender
		}
	}
	return DecisionForbidden
}
