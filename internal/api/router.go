package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/reservation-console/docs"
	"github.com/99minutos/reservation-console/internal/api/handler"
	"github.com/99minutos/reservation-console/internal/api/middleware"
	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/screen"
	"github.com/99minutos/reservation-console/internal/core/service"
)

// Deps is everything the router wires handlers from.
type Deps struct {
	Storage      ports.KeyValueStore
	Backend      ports.Backend
	Registry     *screen.Registry
	Session      middleware.SessionConfig
	PollInterval time.Duration
	Log          zerolog.Logger
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// ScreenOptions are passed to every mounted screen.
	ScreenOptions []screen.Option
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: d.Registerer,
	}))

	// --- Dependencies ---
	authService := service.NewAuthService(d.Backend, d.Log)
	profileService := service.NewProfileService(d.Backend, d.Log)
	peopleService := service.NewPeopleService(d.Backend, d.Log)
	reservationService := service.NewReservationService(d.Backend, d.Log)
	avatars := service.NewAvatarService()
	catalog := screen.NewCatalog(d.Backend, d.PollInterval)

	authHandler := handler.NewAuthHandler(authService, d.Registry, d.Log)
	dash := handler.NewDashboardHandler(profileService, reservationService, peopleService, avatars)

	// --- Ops routes (no visitor session) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(map[string]handler.Pinger{
		"storage": d.Storage,
		"backend": d.Backend,
	})
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Console routes ---
	console := e.Group("", middleware.Session(d.Storage, d.Session, d.Log))

	console.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/login")
	})
	console.GET("/login", authHandler.LoginForm)
	console.POST("/login", authHandler.Login)
	console.GET("/signup", authHandler.SignupForm)
	console.POST("/signup", authHandler.Signup)
	console.GET("/verificar-correo", authHandler.VerifyForm)
	console.POST("/verificar-correo", authHandler.Verify)
	console.POST("/verificar-correo/reenviar", authHandler.Resend)
	console.POST("/logout", authHandler.Logout)
	console.GET("/dashboard", authHandler.Dashboard)

	screens := d.Log.With().Str("component", "screen").Logger()

	// --- Client dashboard ---
	cliente := dashboard(console, "/dashboard/cliente", domain.RoleClient, dash)
	handler.NewScreenHandler(catalog.ClientReservations, d.Registry, avatars, screens, d.ScreenOptions...).Register(cliente, "/reservas")
	cliente.GET("/crear-reserva", dash.ReservationForm)
	cliente.POST("/crear-reserva", dash.CreateReservation)

	// --- Technician dashboard ---
	tecnico := dashboard(console, "/dashboard/tecnico", domain.RoleTechnician, dash)
	handler.NewScreenHandler(catalog.TechnicianTickets, d.Registry, avatars, screens, d.ScreenOptions...).Register(tecnico, "/tickets")
	handler.NewScreenHandler(catalog.IncomingTickets, d.Registry, avatars, screens, d.ScreenOptions...).Register(tecnico, "/notificaciones")
	tecnico.GET("/add-tech", dash.StaffForm)
	tecnico.POST("/add-tech", dash.CreateStaff)

	// --- Admin dashboard ---
	admin := dashboard(console, "/dashboard/admin", domain.RoleAdmin, dash)
	handler.NewScreenHandler(catalog.AdminReservations, d.Registry, avatars, screens, d.ScreenOptions...).Register(admin, "/reservas")
	handler.NewScreenHandler(catalog.Vehicles, d.Registry, avatars, screens, d.ScreenOptions...).Register(admin, "/autos")
	handler.NewScreenHandler(catalog.Clients, d.Registry, avatars, screens, d.ScreenOptions...).Register(admin, "/clientes")
	handler.NewScreenHandler(catalog.Technicians, d.Registry, avatars, screens, d.ScreenOptions...).Register(admin, "/tecnicos")
	handler.NewScreenHandler(catalog.PendingTechnicians, d.Registry, avatars, screens, d.ScreenOptions...).Register(admin, "/notificaciones")
	admin.GET("/crear-tecnico", dash.StaffForm)
	admin.POST("/crear-tecnico", dash.CreateStaff)
	admin.GET("/crear-cliente", dash.ClientForm)
	admin.POST("/crear-cliente", dash.CreateClient)

	return e
}

// dashboard opens a guarded role subtree with the routes every role shares:
// the landing and the profile screen.
func dashboard(parent *echo.Group, prefix string, role domain.Role, dash *handler.DashboardHandler) *echo.Group {
	g := parent.Group(prefix, middleware.Guard(prefix, role))
	g.GET("", dash.Landing)
	g.GET("/perfil", dash.Profile)
	g.PUT("/perfil", dash.UpdateProfile)
	g.POST("/perfil/foto", dash.UploadPhoto)
	return g
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
