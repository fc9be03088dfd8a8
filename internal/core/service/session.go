package service

import (
	"context"
	"errors"

	"github.com/99minutos/reservation-console/internal/core/domain"
)

// Session is the visitor session a form service reads and updates.
// *SessionStore implements it.
type Session interface {
	Token() string
	Identity() *domain.Identity
	SetCredentials(ctx context.Context, identity *domain.Identity, token string) error
	Invalidate(ctx context.Context)
}

var _ Session = (*SessionStore)(nil)

// Outcome is what a submitted form tells the visitor: a banner and, when the
// flow moves on, where to go next.
type Outcome struct {
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// checkRejected drops the session when the backend refused its token.
func checkRejected(ctx context.Context, s Session, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		s.Invalidate(context.WithoutCancel(ctx))
	}
}

// failure turns a backend error into the message the form shows.
func failure(err error, fallback string) *domain.FormError {
	return domain.Invalid(domain.MessageOr(err, fallback))
}
