package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/validation"
	"github.com/99minutos/reservation-console/internal/pkg/metrics"
)

const (
	MsgBadCredentials = "Usuario o contraseña incorrectos"
	MsgGenericError   = "Ocurrió un error. Intenta de nuevo."
	MsgMissingLogin   = "Ingresa tu correo y contraseña"
	MsgFixForm        = "Corrige los errores en el formulario"
	MsgMissingCode    = "Ingresa el código de verificación"
	MsgVerifyFailed   = "Error al verificar el código"
	MsgVerified       = "¡Correo verificado correctamente! Ahora puedes iniciar sesión."
	MsgResendFailed   = "Error al reenviar el código"
	MsgResent         = "Código reenviado. Revisa tu correo electrónico."
	MsgRegistered     = "Registro exitoso. Revisa tu correo e ingresa el código de verificación."
	verifyEmailHint   = "verificar tu correo"
	verifyEmailPath   = "/verificar-correo"
	loginPath         = "/login"
)

// AuthBackend is what login and signup need from the REST backend.
type AuthBackend interface {
	ports.AuthBackend
	GetProfile(ctx context.Context, token string) (*domain.Identity, error)
}

// AuthService implements login, signup and email verification.
type AuthService struct {
	backend AuthBackend
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(backend AuthBackend, log zerolog.Logger) *AuthService {
	return &AuthService{
		backend: backend,
		log:     log.With().Str("component", "auth").Logger(),
		now:     time.Now,
	}
}

// DashboardFor is where a role lands after login.
func DashboardFor(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "/dashboard/admin"
	case domain.RoleTechnician:
		return "/dashboard/tecnico"
	default:
		return "/dashboard/cliente"
	}
}

// Login authenticates against the backend and stores the session. An account
// that still has to confirm its email gets a redirect to the verification
// form instead of an error.
func (s *AuthService) Login(ctx context.Context, session Session, email, password string) (Outcome, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Outcome{}, domain.Invalid(MsgMissingLogin)
	}

	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("login_failed").Inc()
		return s.loginFailure(email, err)
	}
	if res.User == nil || res.Token == "" {
		s.log.Error().Msg("login response without user or token")
		return Outcome{}, domain.Invalid(MsgGenericError)
	}

	user := *res.User
	if user.Role != domain.RoleAdmin {
		// The login answer is partial; names come from the profile.
		profile, err := s.backend.GetProfile(ctx, res.Token)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("profile fetch after login failed")
		} else {
			user.Nombre = profile.Nombre
			user.Apellido = profile.Apellido
		}
	} else if user.Nombre == "" {
		user.Nombre = user.Email
	}

	if err := session.SetCredentials(ctx, &user, res.Token); err != nil {
		return Outcome{}, err
	}
	metrics.SessionEventsTotal.WithLabelValues("login").Inc()
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login")

	return Outcome{Redirect: DashboardFor(user.Role)}, nil
}

func (s *AuthService) loginFailure(email string, err error) (Outcome, error) {
	var be *domain.BackendError
	if !errors.As(err, &be) {
		s.log.Error().Err(err).Msg("login request failed")
		return Outcome{}, domain.Invalid(MsgGenericError)
	}
	switch {
	case be.Message != "" && strings.Contains(strings.ToLower(be.Message), verifyEmailHint):
		return Outcome{Message: be.Message, Redirect: VerifyEmailURL(email)}, nil
	case be.Message != "":
		return Outcome{}, domain.Invalid(be.Message)
	case be.Status == 400:
		return Outcome{}, domain.Invalid(MsgBadCredentials)
	default:
		return Outcome{}, domain.Invalid(MsgGenericError)
	}
}

// VerifyEmailURL is the verification form prefilled with email.
func VerifyEmailURL(email string) string {
	return verifyEmailPath + "?email=" + url.QueryEscape(email)
}

// Signup is the public registration form.
type Signup struct {
	domain.Registration
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

var signupRequired = map[string]string{
	"cedula":           "La cédula es obligatoria",
	"nombre":           "El nombre es obligatorio",
	"apellido":         "El apellido es obligatorio",
	"ciudad":           "La ciudad es obligatoria",
	"direccion":        "La dirección es obligatoria",
	"telefono":         "El teléfono es obligatorio",
	"fecha_nacimiento": "La fecha de nacimiento es obligatoria",
	"email":            "El email es obligatorio",
	"password":         "La contraseña es obligatoria",
}

// Register creates a client account. The new account must verify its email
// before it can log in.
func (s *AuthService) Register(ctx context.Context, form Signup) (Outcome, error) {
	if fields := validation.Required(form.Registration, signupRequired, "Campo obligatorio"); fields != nil {
		return Outcome{}, &domain.FormError{Message: MsgFixForm, Fields: fields}
	}

	confirm := form.ConfirmPassword
	msg := validation.ValidateRegistration(validation.Registration{
		Persona:  personaOf(form.Nombre, form.Apellido, form.Cedula, form.Telefono, form.FechaNacimiento, form.Email),
		Password: form.Password,
		Confirm:  &confirm,
	}, s.now())
	if msg != "" {
		return Outcome{}, &domain.FormError{Message: msg, Fields: map[string]string{validation.FieldOf(msg): msg}}
	}

	req := form.Registration
	req.Rol = domain.RoleClient
	if err := s.backend.Register(ctx, req); err != nil {
		var be *domain.BackendError
		switch {
		case errors.As(err, &be) && be.Status == 400 && len(be.Fields) > 0:
			return Outcome{}, &domain.FormError{Message: MsgFixForm, Fields: be.Fields}
		case errors.As(err, &be) && be.Message != "":
			return Outcome{}, domain.Invalid(be.Message)
		default:
			s.log.Error().Err(err).Msg("register request failed")
			return Outcome{}, domain.Invalid(MsgGenericError)
		}
	}

	s.log.Info().Str("email", req.Email).Msg("client registered")
	return Outcome{Message: MsgRegistered, Redirect: VerifyEmailURL(req.Email)}, nil
}

// VerifyEmail confirms an address with the code the backend mailed.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (Outcome, error) {
	if strings.TrimSpace(code) == "" {
		return Outcome{}, domain.Invalid(MsgMissingCode)
	}
	if !validation.ValidEmail(email) {
		return Outcome{}, domain.Invalid(validation.MsgEmail)
	}
	if err := s.backend.VerifyEmail(ctx, strings.TrimSpace(email), strings.TrimSpace(code)); err != nil {
		return Outcome{}, failure(err, MsgVerifyFailed)
	}
	return Outcome{Message: MsgVerified, Redirect: loginPath}, nil
}

// ResendCode asks the backend to mail a fresh verification code.
func (s *AuthService) ResendCode(ctx context.Context, email string) (Outcome, error) {
	if !validation.ValidEmail(email) {
		return Outcome{}, domain.Invalid(validation.MsgEmail)
	}
	if err := s.backend.ResendCode(ctx, strings.TrimSpace(email)); err != nil {
		return Outcome{}, failure(err, MsgResendFailed)
	}
	return Outcome{Message: MsgResent}, nil
}

func personaOf(nombre, apellido, cedula, telefono, nacimiento, email string) validation.Persona {
	return validation.Persona{
		Nombre:          strings.TrimSpace(nombre),
		Apellido:        strings.TrimSpace(apellido),
		Cedula:          strings.TrimSpace(cedula),
		Telefono:        strings.TrimSpace(telefono),
		FechaNacimiento: strings.TrimSpace(nacimiento),
		Email:           strings.TrimSpace(email),
	}
}
