package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/service"
	"github.com/99minutos/reservation-console/internal/core/validation"
)

type profileFlows interface {
	Load(ctx context.Context, session service.Session) (*domain.Identity, error)
	Update(ctx context.Context, session service.Session, form service.ProfileForm) (service.Outcome, error)
}

type reservationFlows interface {
	Vehicles(ctx context.Context, session service.Session) ([]domain.Vehicle, error)
	Create(ctx context.Context, session service.Session, form validation.ReservationForm) (service.Outcome, error)
}

type peopleFlows interface {
	CreateStaff(ctx context.Context, session service.Session, form domain.TechnicianRegistration) (service.Outcome, error)
	CreateClient(ctx context.Context, session service.Session, form domain.Registration) (service.Outcome, error)
}

type avatarStore interface {
	avatarReader
	Set(ctx context.Context, storage ports.LocalStorage, role domain.Role, dataURL string) (service.Outcome, error)
}

// DashboardHandler serves the dashboard landings and the form screens that
// live inside them.
type DashboardHandler struct {
	profiles     profileFlows
	reservations reservationFlows
	people       peopleFlows
	avatars      avatarStore
}

func NewDashboardHandler(profiles profileFlows, reservations reservationFlows, people peopleFlows, avatars avatarStore) *DashboardHandler {
	return &DashboardHandler{profiles: profiles, reservations: reservations, people: people, avatars: avatars}
}

// page is the per-request context every dashboard screen needs.
type page struct {
	session *service.SessionStore
	storage ports.LocalStorage
	shell   *Shell
}

func (h *DashboardHandler) page(c echo.Context) (page, error) {
	_, session, storage, err := visitorContext(c)
	if err != nil {
		return page{}, err
	}
	return page{
		session: session,
		storage: storage,
		shell:   shellFor(c.Request().Context(), session, storage, h.avatars),
	}, nil
}

type photoRequest struct {
	Foto string `json:"foto" form:"foto" validate:"required"`
}

// Landing renders the dashboard overview with the welcome line.
//
// @Summary      Dashboard landing
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  View
// @Failure      401  {object}  View
// @Failure      403  {object}  View
// @Router       /dashboard/{role} [get]
func (h *DashboardHandler) Landing(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, View{
		Shell: p.shell,
		Screen: Overview{
			Name:    "overview",
			Welcome: p.session.Identity().Welcome(),
			Cards:   p.shell.Menu,
		},
	})
}

// Profile shows the signed-in user's profile.
//
// @Summary      Own profile
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  View
// @Router       /dashboard/{role}/perfil [get]
func (h *DashboardHandler) Profile(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.Load(c.Request().Context(), p.session)
	if err != nil {
		var fe *domain.FormError
		if !errors.As(err, &fe) {
			return err
		}
		// A load failure is a screen state, not a request failure.
		return c.JSON(http.StatusOK, View{Shell: p.shell, Screen: Form{Name: "perfil", Notice: errorNotice(fe.Error())}})
	}
	return c.JSON(http.StatusOK, View{Shell: p.shell, Screen: Form{Name: "perfil", Data: profile}})
}

// UpdateProfile saves the profile form. Empty fields are left unchanged.
//
// @Summary      Update own profile
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      service.ProfileForm  true  "Changed fields"
// @Success      200   {object}  View
// @Failure      422   {object}  View
// @Router       /dashboard/{role}/perfil [put]
func (h *DashboardHandler) UpdateProfile(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	var form service.ProfileForm
	if err := c.Bind(&form); err != nil {
		return invalidPayload(c)
	}
	out, err := h.profiles.Update(c.Request().Context(), p.session, form)
	if err == nil {
		// The shell shows the new name.
		p.shell = shellFor(c.Request().Context(), p.session, p.storage, h.avatars)
	}
	return renderForm(c, p.shell, "perfil", out, err)
}

// UploadPhoto stores the decorative profile photo for the visitor's role.
//
// @Summary      Upload profile photo
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      photoRequest  true  "data:image URL"
// @Success      200   {object}  View
// @Failure      422   {object}  View
// @Router       /dashboard/{role}/perfil/foto [post]
func (h *DashboardHandler) UploadPhoto(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	var req photoRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return renderForm(c, p.shell, "perfil", service.Outcome{}, err)
	}
	out, err := h.avatars.Set(c.Request().Context(), p.storage, p.shell.Role, req.Foto)
	if err == nil {
		p.shell.Avatar = req.Foto
	}
	return renderForm(c, p.shell, "perfil", out, err)
}

// ReservationForm lists the vehicles a client can book.
//
// @Summary      New reservation form
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  View
// @Router       /dashboard/cliente/crear-reserva [get]
func (h *DashboardHandler) ReservationForm(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	vehicles, err := h.reservations.Vehicles(c.Request().Context(), p.session)
	if err != nil {
		var fe *domain.FormError
		if !errors.As(err, &fe) {
			return err
		}
		return c.JSON(http.StatusOK, View{Shell: p.shell, Screen: Form{Name: "crear-reserva", Notice: errorNotice(fe.Error())}})
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	return c.JSON(http.StatusOK, View{
		Shell:  p.shell,
		Screen: Form{Name: "crear-reserva", Data: map[string]any{"vehiculos": vehicles}},
	})
}

// CreateReservation books a vehicle for the signed-in client.
//
// @Summary      Create reservation
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      validation.ReservationForm  true  "Reservation"
// @Success      200   {object}  View
// @Failure      422   {object}  View
// @Router       /dashboard/cliente/crear-reserva [post]
func (h *DashboardHandler) CreateReservation(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	var form validation.ReservationForm
	if err := c.Bind(&form); err != nil {
		return invalidPayload(c)
	}
	out, err := h.reservations.Create(c.Request().Context(), p.session, form)
	return renderForm(c, p.shell, "crear-reserva", out, err)
}

// StaffForm renders the technician creation form.
//
// @Summary      New technician form
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  View
// @Router       /dashboard/admin/crear-tecnico [get]
func (h *DashboardHandler) StaffForm(c echo.Context) error {
	return h.emptyForm(c, "crear-tecnico")
}

// CreateStaff registers a technician, or an admin when an admin asks.
//
// @Summary      Create technician
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      domain.TechnicianRegistration  true  "Technician"
// @Success      200   {object}  View
// @Failure      422   {object}  View
// @Router       /dashboard/admin/crear-tecnico [post]
func (h *DashboardHandler) CreateStaff(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	var form domain.TechnicianRegistration
	if err := c.Bind(&form); err != nil {
		return invalidPayload(c)
	}
	out, err := h.people.CreateStaff(c.Request().Context(), p.session, form)
	return renderForm(c, p.shell, "crear-tecnico", out, err)
}

// ClientForm renders the admin's client creation form.
//
// @Summary      New client form
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  View
// @Router       /dashboard/admin/crear-cliente [get]
func (h *DashboardHandler) ClientForm(c echo.Context) error {
	return h.emptyForm(c, "crear-cliente")
}

// CreateClient registers a verified client account.
//
// @Summary      Create client
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Registration  true  "Client"
// @Success      200   {object}  View
// @Failure      422   {object}  View
// @Router       /dashboard/admin/crear-cliente [post]
func (h *DashboardHandler) CreateClient(c echo.Context) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	var form domain.Registration
	if err := c.Bind(&form); err != nil {
		return invalidPayload(c)
	}
	out, err := h.people.CreateClient(c.Request().Context(), p.session, form)
	return renderForm(c, p.shell, "crear-cliente", out, err)
}

func (h *DashboardHandler) emptyForm(c echo.Context, name string) error {
	p, err := h.page(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, View{Shell: p.shell, Screen: Form{Name: name}})
}
