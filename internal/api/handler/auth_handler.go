package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/service"
	"github.com/99minutos/reservation-console/internal/pkg/metrics"
)

type authFlows interface {
	Login(ctx context.Context, session service.Session, email, password string) (service.Outcome, error)
	Register(ctx context.Context, form service.Signup) (service.Outcome, error)
	VerifyEmail(ctx context.Context, email, code string) (service.Outcome, error)
	ResendCode(ctx context.Context, email string) (service.Outcome, error)
}

// screenReleaser unmounts whatever screen a visitor has open.
type screenReleaser interface {
	Release(visitor string)
}

type AuthHandler struct {
	auth    authFlows
	screens screenReleaser
	log     zerolog.Logger
}

func NewAuthHandler(auth authFlows, screens screenReleaser, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, screens: screens, log: log}
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type verifyRequest struct {
	Email  string `json:"email" form:"email"`
	Codigo string `json:"codigo" form:"codigo"`
}

type resendRequest struct {
	Email string `json:"email" form:"email"`
}

// Dashboard sends a signed-in visitor to their role's dashboard and anyone
// else to the login form.
//
// @Summary      Dashboard entry
// @Tags         auth
// @Success      302
// @Router       /dashboard [get]
func (h *AuthHandler) Dashboard(c echo.Context) error {
	_, session, _, err := visitorContext(c)
	if err != nil {
		return err
	}
	id := session.Identity()
	if id == nil || session.Token() == "" {
		return c.Redirect(http.StatusFound, "/login")
	}
	return c.Redirect(http.StatusFound, service.DashboardFor(id.Role))
}

// LoginForm renders the empty login form.
//
// @Summary      Login form
// @Tags         auth
// @Produce      json
// @Success      200  {object}  View
// @Router       /login [get]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.JSON(http.StatusOK, View{Screen: Form{Name: "login"}})
}

// Login authenticates against the backend and redirects to the dashboard of
// the visitor's role, or to email verification for unconfirmed accounts.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      303
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  View
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	visitor, session, _, err := visitorContext(c)
	if err != nil {
		return err
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}

	out, err := h.auth.Login(c.Request().Context(), session, req.Email, req.Password)
	if err != nil {
		return renderForm(c, nil, "login", out, err)
	}
	if session.Snapshot().Authenticated() {
		// Screens mounted under a previous session hold its token.
		h.screens.Release(visitor)
	}
	return c.Redirect(http.StatusSeeOther, out.Redirect)
}

// SignupForm renders the empty client registration form.
//
// @Summary      Signup form
// @Tags         auth
// @Produce      json
// @Success      200  {object}  View
// @Router       /signup [get]
func (h *AuthHandler) SignupForm(c echo.Context) error {
	return c.JSON(http.StatusOK, View{Screen: Form{Name: "signup"}})
}

// Signup registers a client account that still has to verify its email.
//
// @Summary      Register a client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      service.Signup  true  "Registration details"
// @Success      200   {object}  View
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  View
// @Router       /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var form service.Signup
	if err := c.Bind(&form); err != nil {
		return invalidPayload(c)
	}
	out, err := h.auth.Register(c.Request().Context(), form)
	return renderForm(c, nil, "signup", out, err)
}

// VerifyForm renders the verification form, prefilled from ?email=.
//
// @Summary      Email verification form
// @Tags         auth
// @Produce      json
// @Param        email  query     string  false  "Address to verify"
// @Success      200    {object}  View
// @Router       /verificar-correo [get]
func (h *AuthHandler) VerifyForm(c echo.Context) error {
	return c.JSON(http.StatusOK, View{Screen: Form{
		Name: "verify-email",
		Data: map[string]string{"email": c.QueryParam("email")},
	}})
}

// Verify confirms an email address with the code the backend mailed.
//
// @Summary      Verify email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Email and code"
// @Success      200   {object}  View
// @Failure      422   {object}  View
// @Router       /verificar-correo [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	out, err := h.auth.VerifyEmail(c.Request().Context(), req.Email, req.Codigo)
	return renderForm(c, nil, "verify-email", out, err)
}

// Resend asks the backend to mail a new verification code.
//
// @Summary      Resend verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resendRequest  true  "Email"
// @Success      200   {object}  View
// @Failure      422   {object}  View
// @Router       /verificar-correo/reenviar [post]
func (h *AuthHandler) Resend(c echo.Context) error {
	var req resendRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	out, err := h.auth.ResendCode(c.Request().Context(), req.Email)
	return renderForm(c, nil, "verify-email", out, err)
}

// Logout clears the session and unmounts the visitor's screen.
//
// @Summary      Logout
// @Tags         auth
// @Success      303
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	visitor, session, _, err := visitorContext(c)
	if err != nil {
		return err
	}
	h.screens.Release(visitor)
	if err := session.Logout(c.Request().Context()); err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("logout").Inc()
	h.log.Debug().Str("visitor", visitor).Msg("logout")
	return c.Redirect(http.StatusSeeOther, "/login")
}
