package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reservation-console/internal/api/middleware"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/service"
)

// visitorContext extracts what the Session middleware injected and fails
// fast when it did not run: every console route sits behind it.
func visitorContext(c echo.Context) (visitor string, session *service.SessionStore, storage ports.LocalStorage, err error) {
	visitor, _ = c.Get(middleware.KeyVisitor).(string)
	session = middleware.SessionOf(c)
	storage, _ = c.Get(middleware.KeyStorage).(ports.LocalStorage)
	if visitor == "" || session == nil || storage == nil {
		return "", nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "visitor session missing")
	}
	return visitor, session, storage, nil
}
