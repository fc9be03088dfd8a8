package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/screen"
	"github.com/99minutos/reservation-console/internal/core/service"
)

// ScreenHandler serves one entity screen. Each visitor gets its own mounted
// Module, kept in the registry until they navigate elsewhere.
type ScreenHandler[T domain.Record] struct {
	spec     func() screen.Spec[T]
	name     string
	registry *screen.Registry
	avatars  avatarReader
	log      zerolog.Logger
	opts     []screen.Option
}

func NewScreenHandler[T domain.Record](spec func() screen.Spec[T], registry *screen.Registry, avatars avatarReader, log zerolog.Logger, opts ...screen.Option) *ScreenHandler[T] {
	return &ScreenHandler[T]{spec: spec, name: spec().Name, registry: registry, avatars: avatars, log: log, opts: opts}
}

// Register wires the screen endpoints under path inside g.
func (h *ScreenHandler[T]) Register(g *echo.Group, path string) {
	g.GET(path, h.Mount)
	g.POST(path+"/modal", h.Open)
	g.DELETE(path+"/modal", h.Close)
	g.POST(path+"/modal/submit", h.Submit)
	g.POST(path+"/items/:id/:action", h.Act)
}

type modalRequest struct {
	Mode screen.Modal `json:"mode" validate:"required,oneof=viewing editing deleting creating"`
	ID   string       `json:"id"`
}

// Mount opens the screen afresh and renders its first state.
//
// @Summary      Mount an entity screen
// @Tags         screens
// @Produce      json
// @Success      200  {object}  View
// @Failure      401  {object}  View
// @Failure      403  {object}  View
// @Router       /dashboard/{role}/{screen} [get]
func (h *ScreenHandler[T]) Mount(c echo.Context) error {
	visitor, session, storage, err := visitorContext(c)
	if err != nil {
		return err
	}
	m := screen.New(h.spec(), session, h.log, h.opts...)
	h.registry.Swap(visitor, h.name, m)
	m.Mount(c.Request().Context())

	return h.render(c, session, storage, m)
}

// Open moves the modal to viewing, editing, deleting or creating.
//
// @Summary      Open a screen overlay
// @Tags         screens
// @Accept       json
// @Produce      json
// @Param        body  body      modalRequest  true  "Overlay and record id"
// @Success      200   {object}  View
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /dashboard/{role}/{screen}/modal [post]
func (h *ScreenHandler[T]) Open(c echo.Context) error {
	var req modalRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return h.with(c, func(m *screen.Module[T]) error {
		return m.Open(c.Request().Context(), req.Mode, req.ID)
	})
}

// Close returns to the plain list.
//
// @Summary      Close a screen overlay
// @Tags         screens
// @Produce      json
// @Success      200  {object}  View
// @Router       /dashboard/{role}/{screen}/modal [delete]
func (h *ScreenHandler[T]) Close(c echo.Context) error {
	return h.with(c, func(m *screen.Module[T]) error {
		m.Close()
		return nil
	})
}

// Submit saves the edit or create form, or confirms the delete. The body,
// when present, replaces the draft.
//
// @Summary      Submit a screen overlay
// @Tags         screens
// @Accept       json
// @Produce      json
// @Success      200  {object}  View
// @Failure      409  {object}  map[string]string
// @Router       /dashboard/{role}/{screen}/modal/submit [post]
func (h *ScreenHandler[T]) Submit(c echo.Context) error {
	form, err := bindRecord[T](c)
	if err != nil {
		return err
	}
	return h.with(c, func(m *screen.Module[T]) error {
		return m.Submit(c.Request().Context(), form)
	})
}

// Act runs a named action such as approving or taking a record.
//
// @Summary      Run a record action
// @Tags         screens
// @Accept       json
// @Produce      json
// @Param        id      path      string  true  "Record id"
// @Param        action  path      string  true  "Action name"
// @Success      200     {object}  View
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /dashboard/{role}/{screen}/items/{id}/{action} [post]
func (h *ScreenHandler[T]) Act(c echo.Context) error {
	form, err := bindRecord[T](c)
	if err != nil {
		return err
	}
	return h.with(c, func(m *screen.Module[T]) error {
		return m.Act(c.Request().Context(), c.Param("action"), c.Param("id"), form)
	})
}

// with runs op on the visitor's mounted module and renders the result.
func (h *ScreenHandler[T]) with(c echo.Context, op func(*screen.Module[T]) error) error {
	visitor, session, storage, err := visitorContext(c)
	if err != nil {
		return err
	}
	m, ok := screen.Lookup[T](h.registry, visitor, h.name)
	if !ok {
		return domain.ErrNotMounted
	}
	if err := op(m); err != nil {
		return err
	}
	return h.render(c, session, storage, m)
}

func (h *ScreenHandler[T]) render(c echo.Context, session *service.SessionStore, storage ports.LocalStorage, m *screen.Module[T]) error {
	return c.JSON(http.StatusOK, View{
		Shell:  shellFor(c.Request().Context(), session, storage, h.avatars),
		Screen: m.Snapshot(),
	})
}

// bindRecord decodes the optional record body. An empty body yields nil so
// the module keeps its own draft.
func bindRecord[T any](c echo.Context) (*T, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Formulario inválido")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var rec T
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Formulario inválido")
	}
	return &rec, nil
}
