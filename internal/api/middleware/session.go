package middleware

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/service"
)

// Context keys set by Session.
const (
	KeyVisitor = "visitor"
	KeySession = "session"
	KeyStorage = "storage"
)

// SessionConfig describes the visitor cookie.
type SessionConfig struct {
	Cookie string
	Secure bool
	MaxAge time.Duration
}

// Session identifies the browser by its visitor cookie, issuing a fresh
// UUID when the cookie is missing or malformed, and restores that visitor's
// session from durable storage.
func Session(kv ports.KeyValueStore, cfg SessionConfig, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			visitor, ok := visitorCookie(c, cfg.Cookie)
			if !ok {
				id, err := uuid.NewV4()
				if err != nil {
					return err
				}
				visitor = id.String()
			}
			// Refresh the cookie so its expiry slides with activity.
			c.SetCookie(&http.Cookie{
				Name:     cfg.Cookie,
				Value:    visitor,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			storage := service.NewVisitorStorage(kv, visitor)
			store := service.OpenSessionStore(
				c.Request().Context(),
				storage,
				log.With().Str("visitor", visitor).Logger(),
			)

			c.Set(KeyVisitor, visitor)
			c.Set(KeyStorage, storage)
			c.Set(KeySession, store)

			return next(c)
		}
	}
}

func visitorCookie(c echo.Context, name string) (string, bool) {
	ck, err := c.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	id, err := uuid.FromString(ck.Value)
	if err != nil || id.Version() != uuid.V4 {
		return "", false
	}
	return id.String(), true
}

// SessionOf returns the store Session attached to c, or nil.
func SessionOf(c echo.Context) *service.SessionStore {
	s, _ := c.Get(KeySession).(*service.SessionStore)
	return s
}
