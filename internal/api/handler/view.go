package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/screen"
	"github.com/99minutos/reservation-console/internal/core/service"
)

// View is every console response body: the dashboard shell for the
// visitor's role, when inside a dashboard, and the screen being shown.
type View struct {
	Shell  *Shell `json:"shell,omitempty"`
	Screen any    `json:"screen"`
}

type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Shell is the dashboard sidebar.
type Shell struct {
	Role   domain.Role `json:"role"`
	User   string      `json:"user"`
	Avatar string      `json:"avatar,omitempty"`
	Home   string      `json:"home"`
	Menu   []MenuItem  `json:"menu"`
}

// Form is the state of a stateless form screen after a request.
type Form struct {
	Name     string            `json:"name"`
	Notice   *screen.Notice    `json:"notice,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
	Data     any               `json:"data,omitempty"`
}

// Overview is the landing screen of a dashboard.
type Overview struct {
	Name    string     `json:"name"`
	Welcome string     `json:"welcome"`
	Cards   []MenuItem `json:"cards"`
}

var menus = map[domain.Role][]MenuItem{
	domain.RoleClient: {
		{Label: "Mis Reservas", Path: "/dashboard/cliente/reservas"},
		{Label: "Reservar Auto", Path: "/dashboard/cliente/crear-reserva"},
		{Label: "Perfil", Path: "/dashboard/cliente/perfil"},
	},
	domain.RoleTechnician: {
		{Label: "Mis Tickets", Path: "/dashboard/tecnico/tickets"},
		{Label: "Tickets entrantes", Path: "/dashboard/tecnico/notificaciones"},
		{Label: "Perfil", Path: "/dashboard/tecnico/perfil"},
		{Label: "Crear Técnico", Path: "/dashboard/tecnico/add-tech"},
	},
	domain.RoleAdmin: {
		{Label: "Ver reservas", Path: "/dashboard/admin/reservas"},
		{Label: "Ver autos", Path: "/dashboard/admin/autos"},
		{Label: "Clientes", Path: "/dashboard/admin/clientes"},
		{Label: "Técnicos", Path: "/dashboard/admin/tecnicos"},
		{Label: "Notificaciones", Path: "/dashboard/admin/notificaciones"},
		{Label: "Crear técnico", Path: "/dashboard/admin/crear-tecnico"},
		{Label: "Crear cliente", Path: "/dashboard/admin/crear-cliente"},
		{Label: "Perfil admin", Path: "/dashboard/admin/perfil"},
	},
}

type avatarReader interface {
	Get(ctx context.Context, storage ports.LocalStorage, role domain.Role) (string, error)
}

// shellFor builds the sidebar of the signed-in visitor. The guard has
// already admitted the request, so the identity is present.
func shellFor(ctx context.Context, session *service.SessionStore, storage ports.LocalStorage, avatars avatarReader) *Shell {
	id := session.Identity()
	if id == nil {
		return nil
	}
	sh := &Shell{
		Role: id.Role,
		User: id.DisplayName(),
		Home: service.DashboardFor(id.Role),
		Menu: menus[id.Role],
	}
	if sh.User == "" {
		sh.User = id.Email
	}
	if avatars != nil {
		// The photo is decorative; a storage failure just hides it.
		sh.Avatar, _ = avatars.Get(ctx, storage, id.Role)
	}
	return sh
}

func successNotice(text string) *screen.Notice {
	if text == "" {
		return nil
	}
	return &screen.Notice{Kind: "success", Text: text}
}

func errorNotice(text string) *screen.Notice {
	return &screen.Notice{Kind: "error", Text: text}
}

// renderForm answers a form submission. Local and backend validation
// failures render the form again with 422; anything else goes to the
// error handler.
func renderForm(c echo.Context, shell *Shell, name string, out service.Outcome, err error) error {
	if err != nil {
		var fe *domain.FormError
		if !errors.As(err, &fe) {
			return err
		}
		return c.JSON(http.StatusUnprocessableEntity, View{
			Shell:  shell,
			Screen: Form{Name: name, Notice: errorNotice(fe.Error()), Fields: fe.Fields},
		})
	}
	return c.JSON(http.StatusOK, View{
		Shell:  shell,
		Screen: Form{Name: name, Notice: successNotice(out.Message), Redirect: out.Redirect},
	})
}

func invalidPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Formulario inválido"})
}
