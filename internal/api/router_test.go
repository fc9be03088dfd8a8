package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/reservation-console/internal/api"
	"github.com/99minutos/reservation-console/internal/api/handler"
	"github.com/99minutos/reservation-console/internal/api/middleware"
	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/screen"
	"github.com/99minutos/reservation-console/internal/infrastructure/backend"
	"github.com/99minutos/reservation-console/internal/infrastructure/backend/backendtest"
	"github.com/99minutos/reservation-console/internal/infrastructure/db/memory"
)

const pollInterval = 20 * time.Millisecond

// view decodes every shape the console renders.
type view struct {
	Shell  *handler.Shell `json:"shell"`
	Screen struct {
		Name     string            `json:"name"`
		Screen   string            `json:"screen"`
		Phase    string            `json:"phase"`
		Modal    string            `json:"modal"`
		Items    []map[string]any  `json:"items"`
		Notice   *screen.Notice    `json:"notice"`
		Message  string            `json:"message"`
		Welcome  string            `json:"welcome"`
		Redirect string            `json:"redirect"`
		Fields   map[string]string `json:"fields"`
	} `json:"screen"`
}

// browser is one visitor: it keeps the console cookie between requests.
type browser struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newConsole(t *testing.T, srv *backendtest.Server, store ports.KeyValueStore) *echo.Echo {
	t.Helper()
	client, err := backend.New(backend.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zerolog.Nop())
	require.NoError(t, err)

	registry := screen.NewRegistry(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go registry.Run(ctx, time.Minute, time.Hour)
	t.Cleanup(cancel)

	reg := prometheus.NewRegistry()
	return api.NewRouter(api.Deps{
		Storage:      store,
		Backend:      client,
		Registry:     registry,
		Session:      middleware.SessionConfig{Cookie: "console_sid", MaxAge: time.Hour},
		PollInterval: pollInterval,
		Log:          zerolog.Nop(),
		Registerer:   reg,
		Gatherer:     reg,
	})
}

func newBrowser(t *testing.T, e *echo.Echo) *browser {
	return &browser{t: t, e: e, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		b.cookies[ck.Name] = ck
	}
	return rec
}

func (b *browser) view(method, path string, body any) (int, view) {
	b.t.Helper()
	rec := b.do(method, path, body)
	var v view
	require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return rec.Code, v
}

func (b *browser) login(email, password string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(http.MethodPost, "/login", map[string]string{"email": email, "password": password})
}

func TestLogin_RedirectsByRole(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedAdmin("admin@example.com", "secreto1")
	srv.SeedTechnician("tec@example.com", "secreto1", true, nil)
	srv.SeedClient("ana@example.com", "secreto1", map[string]any{"nombre": "Ana", "apellido": "Paz"})
	e := newConsole(t, srv, memory.NewStore())

	cases := map[string]string{
		"admin@example.com": "/dashboard/admin",
		"tec@example.com":   "/dashboard/tecnico",
		"ana@example.com":   "/dashboard/cliente",
	}
	for email, want := range cases {
		rec := newBrowser(t, e).login(email, "secreto1")
		assert.Equal(t, http.StatusSeeOther, rec.Code, email)
		assert.Equal(t, want, rec.Header().Get(echo.HeaderLocation), email)
	}
}

func TestLogin_ThenLandingGreetsByName(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedClient("ana@example.com", "secreto1", map[string]any{"nombre": "Ana", "apellido": "Paz"})
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))

	require.Equal(t, http.StatusSeeOther, b.login("ana@example.com", "secreto1").Code)
	code, v := b.view(http.MethodGet, "/dashboard/cliente", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "overview", v.Screen.Name)
	assert.Equal(t, "Bienvenido, Ana Paz", v.Screen.Welcome)
	require.NotNil(t, v.Shell)
	assert.Equal(t, domain.RoleClient, v.Shell.Role)
	assert.Len(t, v.Shell.Menu, 3)
}

func TestLogin_UnverifiedGoesToVerification(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedUnverifiedClient("ana@example.com", "secreto1")
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))

	rec := b.login("ana@example.com", "secreto1")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/verificar-correo?email=ana%40example.com", rec.Header().Get(echo.HeaderLocation))
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedClient("ana@example.com", "secreto1", nil)
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))

	rec := b.login("ana@example.com", "otra")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Usuario o contraseña incorrectos")
}

func TestGuard_PlaceholdersWithoutBackendFetch(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedTechnician("tec@example.com", "secreto1", true, nil)
	e := newConsole(t, srv, memory.NewStore())

	guest := newBrowser(t, e)
	code, v := guest.view(http.MethodGet, "/dashboard/admin/autos", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "must-login", v.Screen.Name)
	assert.Equal(t, middleware.MsgMustLogin, v.Screen.Message)

	tech := newBrowser(t, e)
	require.Equal(t, http.StatusSeeOther, tech.login("tec@example.com", "secreto1").Code)
	code, v = tech.view(http.MethodGet, "/dashboard/admin/autos", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", v.Screen.Name)

	assert.Zero(t, srv.CountRequests("GET /vehiculos"))
}

func TestNotFound(t *testing.T) {
	srv := backendtest.New(t)
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))

	code, v := b.view(http.MethodGet, "/no-existe", nil)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not-found", v.Screen.Name)
}

func TestRootRedirectsToLogin(t *testing.T) {
	srv := backendtest.New(t)
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))

	rec := b.do(http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestCreateReservation_PastDateSendsNothing(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedClient("ana@example.com", "secreto1", nil)
	vehicleID := srv.SeedVehicle(domain.Vehicle{Marca: "Kia", Modelo: "Rio", Placa: "ABC-123"})
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("ana@example.com", "secreto1").Code)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	code, v := b.view(http.MethodPost, "/dashboard/cliente/crear-reserva", map[string]string{
		"descripcion":  "Viaje",
		"vehiculo":     vehicleID,
		"fecha_inicio": yesterday,
		"fecha_fin":    time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, v.Screen.Notice)
	assert.Equal(t, "La fecha de inicio no puede ser anterior a hoy", v.Screen.Notice.Text)
	assert.Zero(t, srv.CountRequests("POST /reserva"))
}

func TestCreateReservation_Success(t *testing.T) {
	srv := backendtest.New(t)
	clientID := srv.SeedClient("ana@example.com", "secreto1", nil)
	vehicleID := srv.SeedVehicle(domain.Vehicle{Marca: "Kia", Modelo: "Rio", Placa: "ABC-123"})
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("ana@example.com", "secreto1").Code)

	today := time.Now().Format("2006-01-02")
	code, v := b.view(http.MethodPost, "/dashboard/cliente/crear-reserva", map[string]string{
		"descripcion":  "  Viaje  ",
		"vehiculo":     vehicleID,
		"fecha_inicio": today,
		"fecha_fin":    today,
	})

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/dashboard/cliente/reservas", v.Screen.Redirect)
	ids := srv.ReservationIDs()
	require.Len(t, ids, 1)
	stored, _ := srv.Reservation(ids[0])
	assert.Equal(t, clientID, stored["cliente"])
	assert.Equal(t, "Viaje", stored["descripcion"])
}

func TestClientReservations_PollingPicksUpNewRecords(t *testing.T) {
	srv := backendtest.New(t)
	clientID := srv.SeedClient("ana@example.com", "secreto1", nil)
	vehicleID := srv.SeedVehicle(domain.Vehicle{Marca: "Kia", Modelo: "Rio", Placa: "ABC-123"})
	otherID := srv.SeedClient("luis@example.com", "secreto1", nil)
	srv.SeedReservation(clientID, vehicleID, "Primera", time.Now())
	srv.SeedReservation(otherID, vehicleID, "Ajena", time.Now())
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("ana@example.com", "secreto1").Code)

	code, v := b.view(http.MethodGet, "/dashboard/cliente/reservas", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ready", v.Screen.Phase)
	require.Len(t, v.Screen.Items, 1)

	srv.SeedReservation(clientID, vehicleID, "Segunda", time.Now())

	require.Eventually(t, func() bool {
		_, v := b.view(http.MethodDelete, "/dashboard/cliente/reservas/modal", nil)
		return len(v.Screen.Items) == 2
	}, 2*time.Second, pollInterval)
}

func TestAdminVehicles_CreateFlow(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedAdmin("admin@example.com", "secreto1")
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("admin@example.com", "secreto1").Code)

	code, v := b.view(http.MethodGet, "/dashboard/admin/autos", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, v.Screen.Items)

	code, v = b.view(http.MethodPost, "/dashboard/admin/autos/modal", map[string]string{"mode": "creating"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "creating", v.Screen.Modal)

	// Missing placa: rejected locally.
	_, v = b.view(http.MethodPost, "/dashboard/admin/autos/modal/submit", map[string]any{"marca": "Kia", "modelo": "Rio"})
	assert.Equal(t, "creating", v.Screen.Modal)
	require.NotNil(t, v.Screen.Notice)
	assert.Equal(t, "error", v.Screen.Notice.Kind)
	assert.Zero(t, srv.CountRequests("POST /vehiculos"))

	_, v = b.view(http.MethodPost, "/dashboard/admin/autos/modal/submit", map[string]any{"marca": "Kia", "modelo": "Rio", "placa": "ABC-123", "anio": "2022"})
	assert.Equal(t, "closed", v.Screen.Modal)
	require.Len(t, v.Screen.Items, 1)
	assert.Equal(t, "ABC-123", v.Screen.Items[0]["placa"])
	assert.EqualValues(t, 2022, v.Screen.Items[0]["anio"], "a text year is stored as a number")
	assert.Equal(t, 1, srv.CountRequests("POST /vehiculos"))
}

func TestAdminPendingTechnicians_ApproveDrops(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedAdmin("admin@example.com", "secreto1")
	techID := srv.SeedTechnician("tec@example.com", "secreto1", false, map[string]any{"nombre": "Luis"})
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("admin@example.com", "secreto1").Code)

	_, v := b.view(http.MethodGet, "/dashboard/admin/notificaciones", nil)
	require.Len(t, v.Screen.Items, 1)

	code, v := b.view(http.MethodPost, "/dashboard/admin/notificaciones/items/"+techID+"/aprobar", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, v.Screen.Items)
	stored, _ := srv.Person(techID)
	assert.Equal(t, true, stored["aprobado"])
}

func TestScreenOperationWithoutMountConflicts(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedAdmin("admin@example.com", "secreto1")
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("admin@example.com", "secreto1").Code)

	rec := b.do(http.MethodDelete, "/dashboard/admin/autos/modal", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionSurvivesRestart(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedClient("ana@example.com", "secreto1", map[string]any{"nombre": "Ana"})
	store := memory.NewStore()

	first := newBrowser(t, newConsole(t, srv, store))
	require.Equal(t, http.StatusSeeOther, first.login("ana@example.com", "secreto1").Code)

	// A new console process over the same durable storage.
	second := newBrowser(t, newConsole(t, srv, store))
	second.cookies = first.cookies

	code, v := second.view(http.MethodGet, "/dashboard/cliente", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bienvenido, Ana", v.Screen.Welcome)
}

func TestLogout_ClearsSession(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedClient("ana@example.com", "secreto1", nil)
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("ana@example.com", "secreto1").Code)

	rec := b.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	code, v := b.view(http.MethodGet, "/dashboard/cliente", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "must-login", v.Screen.Name)
}

func TestProfilePhoto(t *testing.T) {
	srv := backendtest.New(t)
	srv.SeedTechnician("tec@example.com", "secreto1", true, nil)
	b := newBrowser(t, newConsole(t, srv, memory.NewStore()))
	require.Equal(t, http.StatusSeeOther, b.login("tec@example.com", "secreto1").Code)

	code, _ := b.view(http.MethodPost, "/dashboard/tecnico/perfil/foto", map[string]string{"foto": "https://example.com/x.png"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	photo := "data:image/png;base64,iVBORw0KGgo="
	code, v := b.view(http.MethodPost, "/dashboard/tecnico/perfil/foto", map[string]string{"foto": photo})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, v.Shell)
	assert.Equal(t, photo, v.Shell.Avatar)

	_, v = b.view(http.MethodGet, "/dashboard/tecnico", nil)
	assert.Equal(t, photo, v.Shell.Avatar)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := backendtest.New(t)
	e := newConsole(t, srv, memory.NewStore())
	b := newBrowser(t, e)

	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/health/ready", nil).Code)

	rec := b.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console_requests_total")
}
