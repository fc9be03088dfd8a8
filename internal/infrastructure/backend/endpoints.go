package backend

import (
	"context"
	"net/http"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
)

var _ ports.Backend = (*Client)(nil)

// ── Auth ──────────────────────────────────────────────────────────────────────

func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	var out domain.LoginResult
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req domain.Registration) error {
	return c.do(ctx, http.MethodPost, "/auth/register", "", req, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	in := map[string]string{"email": email, "codigo": code}
	return c.do(ctx, http.MethodPost, "/auth/verify-email", "", in, nil)
}

func (c *Client) ResendCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-code", "", map[string]string{"email": email}, nil)
}

// ── Profile ───────────────────────────────────────────────────────────────────

func (c *Client) GetProfile(ctx context.Context, token string) (*domain.Identity, error) {
	var out domain.Identity
	if err := c.do(ctx, http.MethodGet, "/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, fields ports.Patch) (*domain.Identity, error) {
	var out domain.Identity
	if err := c.do(ctx, http.MethodPut, "/profile", token, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, token, id string, fields ports.Patch) (*domain.Identity, error) {
	var out domain.Identity
	if err := c.do(ctx, http.MethodPut, "/users/"+escape(id), token, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Vehicles ──────────────────────────────────────────────────────────────────

func (c *Client) ListVehicles(ctx context.Context, token string) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	err := c.do(ctx, http.MethodGet, "/vehiculos", token, nil, &out)
	return out, err
}

func (c *Client) CreateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error) {
	v.ID = ""
	var out domain.Vehicle
	err := c.do(ctx, http.MethodPost, "/vehiculos", token, v, &out)
	return out, err
}

func (c *Client) UpdateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error) {
	var out domain.Vehicle
	err := c.do(ctx, http.MethodPut, "/vehiculos/"+escape(v.ID), token, v, &out)
	return out, err
}

func (c *Client) DeleteVehicle(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/vehiculos/"+escape(id), token, nil, nil)
}

// ── Clients ───────────────────────────────────────────────────────────────────

func (c *Client) ListClients(ctx context.Context, token string) ([]domain.Client, error) {
	var out []domain.Client
	err := c.do(ctx, http.MethodGet, "/clients", token, nil, &out)
	return out, err
}

func (c *Client) UpdateClient(ctx context.Context, token string, cl domain.Client) (domain.Client, error) {
	var out domain.Client
	err := c.do(ctx, http.MethodPut, "/clients/"+escape(cl.ID), token, cl, &out)
	return out, err
}

func (c *Client) DeleteClient(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/clients/"+escape(id), token, nil, nil)
}

func (c *Client) RegisterClient(ctx context.Context, token string, req domain.Registration) error {
	return c.do(ctx, http.MethodPost, "/clients/register", token, req, nil)
}

// ── Technicians ───────────────────────────────────────────────────────────────

func (c *Client) ListTechnicians(ctx context.Context, token string) ([]domain.Technician, error) {
	var out []domain.Technician
	err := c.do(ctx, http.MethodGet, "/technicians", token, nil, &out)
	return out, err
}

func (c *Client) PendingTechnicians(ctx context.Context, token string) ([]domain.Technician, error) {
	var out []domain.Technician
	err := c.do(ctx, http.MethodGet, "/technicians/pendientes", token, nil, &out)
	return out, err
}

func (c *Client) UpdateTechnician(ctx context.Context, token string, t domain.Technician) (domain.Technician, error) {
	var out domain.Technician
	err := c.do(ctx, http.MethodPut, "/technicians/"+escape(t.ID), token, t, &out)
	return out, err
}

func (c *Client) ApproveTechnician(ctx context.Context, token, id string) (domain.Technician, error) {
	var out domain.Technician
	err := c.do(ctx, http.MethodPut, "/technicians/"+escape(id)+"/aprobar", token, nil, &out)
	return out, err
}

func (c *Client) DeleteTechnician(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/technicians/"+escape(id), token, nil, nil)
}

func (c *Client) RegisterTechnician(ctx context.Context, token string, req domain.TechnicianRegistration) error {
	return c.do(ctx, http.MethodPost, "/technicians/register", token, req, nil)
}

// ── Reservations ──────────────────────────────────────────────────────────────

func (c *Client) ListReservations(ctx context.Context, token string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := c.do(ctx, http.MethodGet, "/reserva", token, nil, &out)
	return out, err
}

func (c *Client) CreateReservation(ctx context.Context, token string, req domain.NewReservation) (domain.Reservation, error) {
	var out domain.Reservation
	err := c.do(ctx, http.MethodPost, "/reserva", token, req, &out)
	return out, err
}

func (c *Client) UpdateReservation(ctx context.Context, token, id string, patch ports.Patch) (domain.Reservation, error) {
	var out domain.Reservation
	err := c.do(ctx, http.MethodPut, "/reserva/"+escape(id), token, patch, &out)
	return out, err
}

func (c *Client) DeleteReservation(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/reserva/"+escape(id), token, nil, nil)
}

// ── Tickets ───────────────────────────────────────────────────────────────────

func (c *Client) TechnicianTickets(ctx context.Context, token string) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := c.do(ctx, http.MethodGet, "/tickets/mis-tickets/tecnico", token, nil, &out)
	return out, err
}

func (c *Client) PendingTickets(ctx context.Context, token string) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := c.do(ctx, http.MethodGet, "/tickets/pendientes", token, nil, &out)
	return out, err
}

func (c *Client) UpdateTicket(ctx context.Context, token, id string, patch ports.Patch) (domain.Ticket, error) {
	var out domain.Ticket
	err := c.do(ctx, http.MethodPut, "/tickets/"+escape(id), token, patch, &out)
	return out, err
}

func (c *Client) TakeTicket(ctx context.Context, token, id string) (domain.Ticket, error) {
	var out domain.Ticket
	err := c.do(ctx, http.MethodPut, "/tickets/"+escape(id)+"/tomar", token, nil, &out)
	return out, err
}

func (c *Client) DeleteTicket(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/tickets/"+escape(id), token, nil, nil)
}
