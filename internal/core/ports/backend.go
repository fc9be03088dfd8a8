package ports

import (
	"context"

	"github.com/99minutos/reservation-console/internal/core/domain"
)

// Patch is a partial update body. Only the keys present are sent.
type Patch map[string]any

type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Register(ctx context.Context, req domain.Registration) error
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
}

type ProfileBackend interface {
	GetProfile(ctx context.Context, token string) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, token string, fields Patch) (*domain.Identity, error)
	UpdateUser(ctx context.Context, token, id string, fields Patch) (*domain.Identity, error)
}

type VehicleBackend interface {
	ListVehicles(ctx context.Context, token string) ([]domain.Vehicle, error)
	CreateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, token string, v domain.Vehicle) (domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, token, id string) error
}

type ClientBackend interface {
	ListClients(ctx context.Context, token string) ([]domain.Client, error)
	UpdateClient(ctx context.Context, token string, c domain.Client) (domain.Client, error)
	DeleteClient(ctx context.Context, token, id string) error
	RegisterClient(ctx context.Context, token string, req domain.Registration) error
}

type TechnicianBackend interface {
	ListTechnicians(ctx context.Context, token string) ([]domain.Technician, error)
	PendingTechnicians(ctx context.Context, token string) ([]domain.Technician, error)
	UpdateTechnician(ctx context.Context, token string, t domain.Technician) (domain.Technician, error)
	ApproveTechnician(ctx context.Context, token, id string) (domain.Technician, error)
	DeleteTechnician(ctx context.Context, token, id string) error
	RegisterTechnician(ctx context.Context, token string, req domain.TechnicianRegistration) error
}

type ReservationBackend interface {
	ListReservations(ctx context.Context, token string) ([]domain.Reservation, error)
	CreateReservation(ctx context.Context, token string, req domain.NewReservation) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, token, id string, patch Patch) (domain.Reservation, error)
	DeleteReservation(ctx context.Context, token, id string) error
}

type TicketBackend interface {
	TechnicianTickets(ctx context.Context, token string) ([]domain.Ticket, error)
	PendingTickets(ctx context.Context, token string) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, token, id string, patch Patch) (domain.Ticket, error)
	TakeTicket(ctx context.Context, token, id string) (domain.Ticket, error)
	DeleteTicket(ctx context.Context, token, id string) error
}

// Backend is the whole REST contract the console consumes.
type Backend interface {
	AuthBackend
	ProfileBackend
	VehicleBackend
	ClientBackend
	TechnicianBackend
	ReservationBackend
	TicketBackend
	Ping(ctx context.Context) error
}
