package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/validation"
	"github.com/99minutos/reservation-console/internal/infrastructure/db/memory"
)

type stubAuthBackend struct {
	loginResult *domain.LoginResult
	loginErr    error
	profile     *domain.Identity
	profileErr  error
	registerErr error
	registered  []domain.Registration
	verifyErr   error
	resendErr   error
}

func (b *stubAuthBackend) Login(context.Context, string, string) (*domain.LoginResult, error) {
	return b.loginResult, b.loginErr
}

func (b *stubAuthBackend) Register(_ context.Context, req domain.Registration) error {
	b.registered = append(b.registered, req)
	return b.registerErr
}

func (b *stubAuthBackend) VerifyEmail(context.Context, string, string) error { return b.verifyErr }
func (b *stubAuthBackend) ResendCode(context.Context, string) error          { return b.resendErr }

func (b *stubAuthBackend) GetProfile(context.Context, string) (*domain.Identity, error) {
	return b.profile, b.profileErr
}

func newSession(t *testing.T) *SessionStore {
	t.Helper()
	return OpenSessionStore(context.Background(), NewVisitorStorage(memory.NewStore(), "v1"), zerolog.Nop())
}

func newAuthService(b *stubAuthBackend) *AuthService {
	svc := NewAuthService(b, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func formMessage(t *testing.T, err error) string {
	t.Helper()
	var fe *domain.FormError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *domain.FormError, got %v", err)
	}
	return fe.Message
}

func TestAuthService_Login_RedirectByRole(t *testing.T) {
	tests := []struct {
		role domain.Role
		want string
	}{
		{domain.RoleAdmin, "/dashboard/admin"},
		{domain.RoleTechnician, "/dashboard/tecnico"},
		{domain.RoleClient, "/dashboard/cliente"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			b := &stubAuthBackend{
				loginResult: &domain.LoginResult{Token: "tok", User: &domain.Identity{ID: "u1", Role: tt.role, Email: "a@b.co"}},
				profile:     &domain.Identity{Nombre: "Ana", Apellido: "Paz"},
			}
			session := newSession(t)

			out, err := newAuthService(b).Login(context.Background(), session, "a@b.co", "secreto1")
			if err != nil {
				t.Fatalf("Login returned error: %v", err)
			}
			if out.Redirect != tt.want {
				t.Fatalf("redirect = %q, want %q", out.Redirect, tt.want)
			}
			if !session.Snapshot().Authenticated() {
				t.Fatalf("expected an authenticated session")
			}
		})
	}
}

func TestAuthService_Login_MergesProfileNames(t *testing.T) {
	b := &stubAuthBackend{
		loginResult: &domain.LoginResult{Token: "tok", User: &domain.Identity{ID: "u1", Role: domain.RoleClient}},
		profile:     &domain.Identity{Nombre: "Ana", Apellido: "Paz", Cedula: "ignored"},
	}
	session := newSession(t)

	if _, err := newAuthService(b).Login(context.Background(), session, "a@b.co", "x"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	id := session.Identity()
	if id.Welcome() != "Bienvenido, Ana Paz" {
		t.Fatalf("unexpected welcome: %q", id.Welcome())
	}
	if id.Cedula != "" {
		t.Fatalf("only names are merged, got cedula %q", id.Cedula)
	}
}

func TestAuthService_Login_ProfileFailureStillLogsIn(t *testing.T) {
	b := &stubAuthBackend{
		loginResult: &domain.LoginResult{Token: "tok", User: &domain.Identity{ID: "u1", Role: domain.RoleTechnician}},
		profileErr:  domain.ErrBackendUnavailable,
	}
	session := newSession(t)

	if _, err := newAuthService(b).Login(context.Background(), session, "a@b.co", "x"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if session.Identity().Welcome() != "Bienvenido" {
		t.Fatalf("unexpected welcome: %q", session.Identity().Welcome())
	}
}

func TestAuthService_Login_AdminNameFallsBackToEmail(t *testing.T) {
	b := &stubAuthBackend{
		loginResult: &domain.LoginResult{Token: "tok", User: &domain.Identity{ID: "a1", Role: domain.RoleAdmin, Email: "root@example.com"}},
	}
	session := newSession(t)

	if _, err := newAuthService(b).Login(context.Background(), session, "root@example.com", "x"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if got := session.Identity().Nombre; got != "root@example.com" {
		t.Fatalf("nombre = %q", got)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad credentials", &domain.BackendError{Status: 400}, MsgBadCredentials},
		{"server message", &domain.BackendError{Status: 403, Message: "Tu cuenta está pendiente de aprobación"}, "Tu cuenta está pendiente de aprobación"},
		{"server down", domain.ErrBackendUnavailable, MsgGenericError},
		{"500 without message", &domain.BackendError{Status: 500}, MsgGenericError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newSession(t)
			_, err := newAuthService(&stubAuthBackend{loginErr: tt.err}).Login(context.Background(), session, "a@b.co", "x")
			if got := formMessage(t, err); got != tt.want {
				t.Fatalf("message = %q, want %q", got, tt.want)
			}
			if session.Snapshot().Authenticated() {
				t.Fatalf("failed login must not store a session")
			}
		})
	}
}

func TestAuthService_Login_UnverifiedRedirectsToVerification(t *testing.T) {
	b := &stubAuthBackend{loginErr: &domain.BackendError{Status: 403, Message: "Debes verificar tu correo antes de iniciar sesión"}}

	out, err := newAuthService(b).Login(context.Background(), newSession(t), "ana+1@example.com", "x")
	if err != nil {
		t.Fatalf("expected redirect, got error %v", err)
	}
	if out.Redirect != "/verificar-correo?email=ana%2B1%40example.com" {
		t.Fatalf("redirect = %q", out.Redirect)
	}
}

func TestAuthService_Login_MissingFieldsSkipsBackend(t *testing.T) {
	b := &stubAuthBackend{loginErr: errors.New("must not be called")}
	_, err := newAuthService(b).Login(context.Background(), newSession(t), " ", "")
	if got := formMessage(t, err); got != MsgMissingLogin {
		t.Fatalf("message = %q", got)
	}
}

func validSignup() Signup {
	return Signup{
		Registration: domain.Registration{
			Cedula:          "0102030405",
			Nombre:          "Ana",
			Apellido:        "Paz",
			Ciudad:          "Quito",
			Direccion:       "Av. Siempre Viva",
			Telefono:        "0991234567",
			FechaNacimiento: "1995-01-01",
			Email:           "ana@example.com",
			Password:        "secreto1",
		},
		ConfirmPassword: "secreto1",
	}
}

func TestAuthService_Register(t *testing.T) {
	b := &stubAuthBackend{}
	out, err := newAuthService(b).Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(b.registered) != 1 || b.registered[0].Rol != domain.RoleClient {
		t.Fatalf("expected one cliente registration, got %+v", b.registered)
	}
	if out.Redirect != VerifyEmailURL("ana@example.com") {
		t.Fatalf("redirect = %q", out.Redirect)
	}
}

func TestAuthService_Register_LocalValidation(t *testing.T) {
	form := validSignup()
	form.ConfirmPassword = "otra"
	b := &stubAuthBackend{}

	_, err := newAuthService(b).Register(context.Background(), form)

	var fe *domain.FormError
	if !errors.As(err, &fe) || fe.Fields["confirm_password"] != validation.MsgConfirm {
		t.Fatalf("expected confirm_password error, got %v", err)
	}
	if len(b.registered) != 0 {
		t.Fatalf("backend must not be called when validation fails")
	}
}

func TestAuthService_Register_RequiredFields(t *testing.T) {
	form := validSignup()
	form.Ciudad = ""

	_, err := newAuthService(&stubAuthBackend{}).Register(context.Background(), form)

	var fe *domain.FormError
	if !errors.As(err, &fe) || fe.Fields["ciudad"] != "La ciudad es obligatoria" || fe.Message != MsgFixForm {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestAuthService_Register_BackendFieldErrors(t *testing.T) {
	b := &stubAuthBackend{registerErr: &domain.BackendError{Status: 400, Fields: map[string]string{"email": "El email ya existe"}}}

	_, err := newAuthService(b).Register(context.Background(), validSignup())

	var fe *domain.FormError
	if !errors.As(err, &fe) || fe.Fields["email"] != "El email ya existe" {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestAuthService_VerifyAndResend(t *testing.T) {
	svc := newAuthService(&stubAuthBackend{})
	ctx := context.Background()

	if _, err := svc.VerifyEmail(ctx, "ana@example.com", ""); formMessage(t, err) != MsgMissingCode {
		t.Fatalf("expected missing code error")
	}
	out, err := svc.VerifyEmail(ctx, "ana@example.com", "123456")
	if err != nil || out.Message != MsgVerified || out.Redirect != "/login" {
		t.Fatalf("unexpected verify result %+v, %v", out, err)
	}
	out, err = svc.ResendCode(ctx, "ana@example.com")
	if err != nil || out.Message != MsgResent {
		t.Fatalf("unexpected resend result %+v, %v", out, err)
	}

	failing := newAuthService(&stubAuthBackend{verifyErr: domain.ErrBackendUnavailable, resendErr: &domain.BackendError{Status: 404, Message: "Usuario no encontrado"}})
	if _, err := failing.VerifyEmail(ctx, "ana@example.com", "1"); formMessage(t, err) != MsgVerifyFailed {
		t.Fatalf("expected fallback verify message")
	}
	if _, err := failing.ResendCode(ctx, "ana@example.com"); formMessage(t, err) != "Usuario no encontrado" {
		t.Fatalf("expected server message on resend")
	}
}
