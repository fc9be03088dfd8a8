package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/validation"
)

const (
	MsgReservationCreated     = "Reserva creada exitosamente"
	MsgReservationCreateError = "Error al crear la reserva"
	MsgVehiclesLoadError      = "No se pudieron cargar los vehículos"
	clientReservationsPath    = "/dashboard/cliente/reservas"
)

type ReservationBackend interface {
	ListVehicles(ctx context.Context, token string) ([]domain.Vehicle, error)
	CreateReservation(ctx context.Context, token string, req domain.NewReservation) (domain.Reservation, error)
}

// ReservationService backs the client's new-reservation form.
type ReservationService struct {
	backend ReservationBackend
	log     zerolog.Logger
	now     func() time.Time
}

func NewReservationService(backend ReservationBackend, log zerolog.Logger) *ReservationService {
	return &ReservationService{
		backend: backend,
		log:     log.With().Str("component", "reservations").Logger(),
		now:     time.Now,
	}
}

// Vehicles lists what can be booked.
func (s *ReservationService) Vehicles(ctx context.Context, session Session) ([]domain.Vehicle, error) {
	list, err := s.backend.ListVehicles(ctx, session.Token())
	if err != nil {
		checkRejected(ctx, session, err)
		s.log.Warn().Err(err).Msg("vehicle list failed")
		return nil, domain.Invalid(MsgVehiclesLoadError)
	}
	return list, nil
}

// Create books a vehicle for the signed-in client. Nothing is sent when the
// form fails validation.
func (s *ReservationService) Create(ctx context.Context, session Session, form validation.ReservationForm) (Outcome, error) {
	client := session.Identity()
	if client == nil {
		return Outcome{}, domain.ErrUnauthorized
	}
	if msg := validation.ValidateReservation(form, s.now()); msg != "" {
		return Outcome{}, domain.Invalid(msg)
	}

	created, err := s.backend.CreateReservation(ctx, session.Token(), domain.NewReservation{
		Descripcion: strings.TrimSpace(form.Descripcion),
		Cliente:     client.ID,
		Vehiculo:    form.Vehiculo,
		FechaInicio: form.FechaInicio,
		FechaFin:    form.FechaFin,
	})
	if err != nil {
		checkRejected(ctx, session, err)
		return Outcome{}, failure(err, MsgReservationCreateError)
	}
	s.log.Info().Str("reservation_id", created.ID).Str("client_id", client.ID).Msg("reservation created")
	return Outcome{Message: MsgReservationCreated, Redirect: clientReservationsPath}, nil
}
