package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/validation"
)

const (
	MsgProfileUpdated     = "Perfil actualizado correctamente"
	MsgProfileUpdateError = "Error al actualizar perfil"
	MsgProfileLoadError   = "No se pudo cargar el perfil"
	MsgTechProfileLoad    = "No se pudo cargar el perfil técnico"
)

// ProfileForm is the edit-profile form. Empty fields are left unchanged.
type ProfileForm struct {
	Nombre          string `json:"nombre" form:"nombre"`
	Apellido        string `json:"apellido" form:"apellido"`
	Cedula          string `json:"cedula" form:"cedula"`
	Telefono        string `json:"telefono" form:"telefono"`
	Ciudad          string `json:"ciudad" form:"ciudad"`
	Direccion       string `json:"direccion" form:"direccion"`
	FechaNacimiento string `json:"fecha_nacimiento" form:"fecha_nacimiento"`
	Dependencia     string `json:"dependencia" form:"dependencia"`
	Genero          string `json:"genero" form:"genero"`
	Email           string `json:"email" form:"email"`
	// Password is only accepted from admins.
	Password string `json:"password" form:"password"`
}

func (f ProfileForm) patch() ports.Patch {
	p := ports.Patch{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			p[k] = v
		}
	}
	set("nombre", f.Nombre)
	set("apellido", f.Apellido)
	set("cedula", f.Cedula)
	set("telefono", f.Telefono)
	set("ciudad", f.Ciudad)
	set("direccion", f.Direccion)
	set("fecha_nacimiento", f.FechaNacimiento)
	set("dependencia", f.Dependencia)
	set("genero", f.Genero)
	set("email", f.Email)
	return p
}

// ProfileService reads and edits the signed-in user's own profile.
type ProfileService struct {
	backend ports.ProfileBackend
	log     zerolog.Logger
	now     func() time.Time
}

func NewProfileService(backend ports.ProfileBackend, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		backend: backend,
		log:     log.With().Str("component", "profile").Logger(),
		now:     time.Now,
	}
}

// Load returns the profile to show. Admins have no profile document; their
// session identity is the profile.
func (s *ProfileService) Load(ctx context.Context, session Session) (*domain.Identity, error) {
	current := session.Identity()
	if current == nil {
		return nil, domain.ErrUnauthorized
	}
	if current.Role == domain.RoleAdmin {
		return current, nil
	}

	profile, err := s.backend.GetProfile(ctx, session.Token())
	if err != nil {
		checkRejected(ctx, session, err)
		s.log.Warn().Err(err).Msg("profile load failed")
		if current.Role == domain.RoleTechnician {
			return nil, domain.Invalid(MsgTechProfileLoad)
		}
		return nil, domain.Invalid(MsgProfileLoadError)
	}
	if len(profile.FechaNacimiento) > 10 {
		profile.FechaNacimiento = profile.FechaNacimiento[:10]
	}
	return profile, nil
}

// Update saves the form and replaces the session identity with the result.
func (s *ProfileService) Update(ctx context.Context, session Session, form ProfileForm) (Outcome, error) {
	current := session.Identity()
	if current == nil {
		return Outcome{}, domain.ErrUnauthorized
	}
	if current.Role == domain.RoleAdmin {
		return s.updateAdmin(ctx, session, current, form)
	}

	patch := form.patch()
	if msg := validation.ValidatePersonaChanges(personaOf(form.Nombre, form.Apellido, form.Cedula, form.Telefono, form.FechaNacimiento, form.Email), s.now()); msg != "" {
		return Outcome{}, &domain.FormError{Message: msg, Fields: map[string]string{validation.FieldOf(msg): msg}}
	}

	updated, err := s.backend.UpdateProfile(ctx, session.Token(), patch)
	if err != nil {
		checkRejected(ctx, session, err)
		s.log.Warn().Err(err).Msg("profile update failed")
		return Outcome{}, domain.Invalid(MsgProfileUpdateError)
	}

	next := *updated
	if next.ID == "" {
		next.ID = current.ID
	}
	if !next.Role.Valid() {
		next.Role = current.Role
	}
	if err := session.SetCredentials(ctx, &next, session.Token()); err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: MsgProfileUpdated}, nil
}

// updateAdmin can only change email and password on the backend. The other
// fields are kept in the session only.
func (s *ProfileService) updateAdmin(ctx context.Context, session Session, current *domain.Identity, form ProfileForm) (Outcome, error) {
	email := strings.TrimSpace(form.Email)
	if email == "" {
		email = current.Email
	}
	if !validation.ValidEmail(email) {
		return Outcome{}, &domain.FormError{Message: validation.MsgEmail, Fields: map[string]string{"email": validation.MsgEmail}}
	}

	patch := ports.Patch{"email": email}
	if form.Password != "" {
		patch["password"] = form.Password
	}
	updated, err := s.backend.UpdateUser(ctx, session.Token(), current.ID, patch)
	if err != nil {
		checkRejected(ctx, session, err)
		return Outcome{}, failure(err, MsgProfileUpdateError)
	}

	next := *updated
	if next.ID == "" {
		next.ID = current.ID
	}
	next.Role = domain.RoleAdmin
	local := ports.Patch{}
	for k, v := range form.patch() {
		if k == "nombre" || k == "telefono" || k == "ciudad" {
			local[k] = v
		}
	}
	next = mergeIdentity(next, local)
	if next.Nombre == "" {
		next.Nombre = next.Email
	}
	if err := session.SetCredentials(ctx, &next, session.Token()); err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: MsgProfileUpdated}, nil
}

func mergeIdentity(id domain.Identity, p ports.Patch) domain.Identity {
	str := func(k string, dst *string) {
		if v, ok := p[k].(string); ok {
			*dst = v
		}
	}
	str("nombre", &id.Nombre)
	str("apellido", &id.Apellido)
	str("cedula", &id.Cedula)
	str("telefono", &id.Telefono)
	str("ciudad", &id.Ciudad)
	str("direccion", &id.Direccion)
	str("fecha_nacimiento", &id.FechaNacimiento)
	str("dependencia", &id.Dependencia)
	str("genero", &id.Genero)
	str("email", &id.Email)
	return id
}
