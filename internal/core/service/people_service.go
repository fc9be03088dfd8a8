package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/validation"
)

const (
	MsgTechCreatedPending = "Técnico creado, espera la aprobación de tu admin."
	MsgTechCreated        = "Técnico creado correctamente."
	MsgAdminCreated       = "Administrador creado correctamente."
	MsgStaffCreateError   = "Error al crear técnico/administrador"
	MsgAdminOnly          = "Solo un administrador puede crear administradores"
	MsgClientCreated      = "Cliente creado correctamente."
	MsgClientCreateError  = "Error al crear cliente"
	MsgRequiredFields     = "Todos los campos son obligatorios"
)

// PeopleBackend is the account-creation part of the backend.
type PeopleBackend interface {
	RegisterTechnician(ctx context.Context, token string, req domain.TechnicianRegistration) error
	RegisterClient(ctx context.Context, token string, req domain.Registration) error
}

// PeopleService creates staff and client accounts on behalf of the
// signed-in user.
type PeopleService struct {
	backend PeopleBackend
	log     zerolog.Logger
	now     func() time.Time
}

func NewPeopleService(backend PeopleBackend, log zerolog.Logger) *PeopleService {
	return &PeopleService{
		backend: backend,
		log:     log.With().Str("component", "people").Logger(),
		now:     time.Now,
	}
}

// CreateStaff registers a technician or an admin. Technicians may only add
// technicians, and those wait for an admin's approval.
func (s *PeopleService) CreateStaff(ctx context.Context, session Session, form domain.TechnicianRegistration) (Outcome, error) {
	caller := session.Identity()
	if caller == nil {
		return Outcome{}, domain.ErrUnauthorized
	}
	if form.Rol == "" {
		form.Rol = domain.RoleTechnician
	}
	if form.Rol != domain.RoleTechnician && form.Rol != domain.RoleAdmin {
		return Outcome{}, domain.Invalid(MsgStaffCreateError)
	}
	if form.Rol == domain.RoleAdmin && caller.Role != domain.RoleAdmin {
		return Outcome{}, domain.Invalid(MsgAdminOnly)
	}

	if missing := validation.Required(form, nil, MsgRequiredFields); missing != nil {
		return Outcome{}, &domain.FormError{Message: MsgRequiredFields, Fields: missing}
	}
	if msg := validation.ValidateRegistration(validation.Registration{
		Persona:  personaOf(form.Nombre, form.Apellido, form.Cedula, form.Telefono, form.FechaNacimiento, form.Email),
		Password: form.Password,
	}, s.now()); msg != "" {
		return Outcome{}, &domain.FormError{Message: msg, Fields: map[string]string{validation.FieldOf(msg): msg}}
	}

	form.Role = form.Rol
	if err := s.backend.RegisterTechnician(ctx, session.Token(), form); err != nil {
		checkRejected(ctx, session, err)
		return Outcome{}, failure(err, MsgStaffCreateError)
	}
	s.log.Info().Str("by", caller.ID).Str("role", string(form.Rol)).Msg("staff account created")

	switch {
	case form.Rol == domain.RoleAdmin:
		return Outcome{Message: MsgAdminCreated}, nil
	case caller.Role == domain.RoleTechnician:
		return Outcome{Message: MsgTechCreatedPending}, nil
	default:
		return Outcome{Message: MsgTechCreated}, nil
	}
}

// CreateClient registers a client account from the admin console.
func (s *PeopleService) CreateClient(ctx context.Context, session Session, form domain.Registration) (Outcome, error) {
	if session.Identity() == nil {
		return Outcome{}, domain.ErrUnauthorized
	}
	if missing := validation.Required(form, nil, MsgRequiredFields); missing != nil {
		return Outcome{}, &domain.FormError{Message: MsgRequiredFields, Fields: missing}
	}
	if msg := validation.ValidateRegistration(validation.Registration{
		Persona:  personaOf(form.Nombre, form.Apellido, form.Cedula, form.Telefono, form.FechaNacimiento, form.Email),
		Password: form.Password,
	}, s.now()); msg != "" {
		return Outcome{}, &domain.FormError{Message: msg, Fields: map[string]string{validation.FieldOf(msg): msg}}
	}

	form.Rol = domain.RoleClient
	if err := s.backend.RegisterClient(ctx, session.Token(), form); err != nil {
		checkRejected(ctx, session, err)
		return Outcome{}, failure(err, MsgClientCreateError)
	}
	return Outcome{Message: MsgClientCreated}, nil
}
