package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/service"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type notFoundView struct {
	Screen struct {
		Name string `json:"name"`
	} `json:"screen"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders the not-found screen for unmatched paths.
//   - Maps domain sentinels and form errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the visitor.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			var v notFoundView
			v.Screen.Name = "not-found"
			_ = c.JSON(http.StatusNotFound, v)
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, method not allowed, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var fe *domain.FormError
	if errors.As(err, &fe) {
		return http.StatusUnprocessableEntity, errorResponse{Error: fe.Error(), Fields: fe.Fields}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "Tu sesión expiró. Inicia sesión de nuevo."}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: domain.MessageOr(err, "Acceso denegado")}
	case errors.Is(err, domain.ErrNotMounted):
		return http.StatusConflict, errorResponse{Error: "La pantalla no está abierta. Recárgala."}
	case errors.Is(err, domain.ErrModalState):
		return http.StatusConflict, errorResponse{Error: "La acción no está disponible en este momento"}
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusBadRequest, errorResponse{Error: "Acción no soportada"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "Registro no encontrado"}
	case errors.Is(err, domain.ErrBackendUnavailable):
		log.Warn().Err(err).Str("path", c.Path()).Msg("backend unavailable")
		return http.StatusBadGateway, errorResponse{Error: service.MsgGenericError}
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		return http.StatusBadGateway, errorResponse{Error: domain.MessageOr(be, service.MsgGenericError)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: service.MsgGenericError}
}
