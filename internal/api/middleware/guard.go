package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/service"
	"github.com/99minutos/reservation-console/internal/pkg/metrics"
)

const (
	MsgMustLogin = "Para acceder a esta sección, inicia sesión con tu cuenta."
	MsgForbidden = "No tienes permisos para acceder a esta sección."
)

type placeholder struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type placeholderView struct {
	Screen placeholder `json:"screen"`
}

// Guard admits the request only when the visitor's session role is one of
// allowed. Otherwise it renders the must-login or forbidden placeholder in
// place and the handler never runs. subtree labels the decision metric.
func Guard(subtree string, allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var session domain.Session
			if store := SessionOf(c); store != nil {
				session = store.Snapshot()
			}

			decision := service.Decide(session, allowed)
			metrics.GuardDecisionsTotal.WithLabelValues(subtree, decision.String()).Inc()

			switch decision {
			case service.DecisionMustLogin:
				return c.JSON(http.StatusUnauthorized, placeholderView{
					Screen: placeholder{Name: "must-login", Message: MsgMustLogin},
				})
			case service.DecisionForbidden:
				return c.JSON(http.StatusForbidden, placeholderView{
					Screen: placeholder{Name: "forbidden", Message: MsgForbidden},
				})
			}
			return next(c)
		}
	}
}
