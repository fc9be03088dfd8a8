package backendtest

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/reservation-console/internal/core/domain"
)

const tokenTTL = time.Hour

// Fields a caller may never overwrite through an update.
var protected = map[string]bool{"_id": true, "rol": true, "aprobado": true, "password": true, "createdAt": true, "codigo": true}

func (s *Server) routes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record)

	e.GET("/", func(c echo.Context) error { return c.JSON(http.StatusOK, doc{"status": "ok"}) })

	auth := e.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/register", s.register)
	auth.POST("/verify-email", s.verifyEmail)
	auth.POST("/resend-code", s.resendCode)

	api := e.Group("", s.authenticate)
	admin := requireRole(domain.RoleAdmin)

	api.GET("/profile", s.getProfile)
	api.PUT("/profile", s.updateProfile)
	api.PUT("/users/:id", s.updateUser, admin)

	api.GET("/vehiculos", s.listVehicles)
	api.POST("/vehiculos", s.createVehicle, admin)
	api.PUT("/vehiculos/:id", s.updateVehicle, admin)
	api.DELETE("/vehiculos/:id", s.deleteFrom(func() *collection { return s.vehicles }, "Vehículo no encontrado"), admin)

	api.GET("/clients", s.listPeople(domain.RoleClient, nil), admin)
	api.POST("/clients/register", s.registerClient, admin)
	api.PUT("/clients/:id", s.updatePerson(domain.RoleClient), admin)
	api.DELETE("/clients/:id", s.deletePerson(domain.RoleClient), admin)

	approved, pending := true, false
	api.GET("/technicians", s.listPeople(domain.RoleTechnician, &approved), admin)
	api.GET("/technicians/pendientes", s.listPeople(domain.RoleTechnician, &pending), admin)
	api.POST("/technicians/register", s.registerTechnician, requireRole(domain.RoleAdmin, domain.RoleTechnician))
	api.PUT("/technicians/:id/aprobar", s.approveTechnician, admin)
	api.PUT("/technicians/:id", s.updatePerson(domain.RoleTechnician), admin)
	api.DELETE("/technicians/:id", s.deletePerson(domain.RoleTechnician), admin)

	api.GET("/reserva", s.listReservations, requireRole(domain.RoleAdmin, domain.RoleClient))
	api.POST("/reserva", s.createReservation, requireRole(domain.RoleClient))
	api.PUT("/reserva/:id", s.updateReservation, requireRole(domain.RoleAdmin, domain.RoleClient))
	api.DELETE("/reserva/:id", s.deleteReservation, requireRole(domain.RoleAdmin, domain.RoleClient))

	tech := requireRole(domain.RoleTechnician)
	api.GET("/tickets/mis-tickets/tecnico", s.myTickets, tech)
	api.GET("/tickets/pendientes", s.pendingTickets, tech)
	api.PUT("/tickets/:id/tomar", s.takeTicket, tech)
	api.PUT("/tickets/:id", s.updateTicket, tech)
	api.DELETE("/tickets/:id", s.deleteFrom(func() *collection { return s.tickets }, "Ticket no encontrado"), tech)

	return e
}

// ── Auth ──────────────────────────────────────────────────────────────────────

// authenticate validates the bearer token and stores its claims.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.JSON(http.StatusUnauthorized, doc{"message": "Token requerido"})
		}

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(s.secret), nil
		})
		if err != nil || !tkn.Valid {
			return c.JSON(http.StatusUnauthorized, doc{"message": "Token inválido"})
		}

		c.Set("user_id", claims["sub"])
		c.Set("role", claims["role"])
		return next(c)
	}
}

func requireRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, doc{"message": "Acceso denegado"})
			}
			return next(c)
		}
	}
}

func caller(c echo.Context) (id string, role domain.Role) {
	id, _ = c.Get("user_id").(string)
	r, _ := c.Get("role").(string)
	return id, domain.Role(r)
}

func (s *Server) issueToken(id string, role any) (string, error) {
	claims := jwt.MapClaims{
		"sub":  id,
		"role": role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
}

// Token signs a token for the person with id, for tests that skip login.
func (s *Server) Token(id string) string {
	s.mu.Lock()
	d, ok := s.people.get(id)
	s.mu.Unlock()
	if !ok {
		return ""
	}
	tok, _ := s.issueToken(id, d["rol"])
	return tok
}

func (s *Server) login(c echo.Context) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil || in.Email == "" || in.Password == "" {
		return c.JSON(http.StatusBadRequest, doc{})
	}

	s.mu.Lock()
	id, found := s.personByEmail(in.Email)
	var (
		acct   *account
		person doc
	)
	if found {
		acct = s.accounts[id]
		person = clone(s.people.docs[id])
	}
	s.mu.Unlock()

	if !found || bcrypt.CompareHashAndPassword([]byte(acct.hash), []byte(in.Password)) != nil {
		return c.JSON(http.StatusBadRequest, doc{})
	}
	if !acct.verified {
		return c.JSON(http.StatusForbidden, doc{"message": "Debes verificar tu correo antes de iniciar sesión"})
	}
	if person["rol"] == string(domain.RoleTechnician) && person["aprobado"] != true {
		return c.JSON(http.StatusForbidden, doc{"message": "Tu cuenta está pendiente de aprobación"})
	}

	token, err := s.issueToken(id, person["rol"])
	if err != nil {
		return c.JSON(http.StatusInternalServerError, doc{"message": "Error interno"})
	}
	return c.JSON(http.StatusOK, doc{
		"token": token,
		"user":  doc{"_id": id, "email": person["email"], "rol": person["rol"]},
	})
}

var registrationFields = []struct{ key, msg string }{
	{"cedula", "La cédula es obligatoria"},
	{"nombre", "El nombre es obligatorio"},
	{"apellido", "El apellido es obligatorio"},
	{"email", "El email es obligatorio"},
	{"password", "La contraseña es obligatoria"},
}

func bindDoc(c echo.Context) (doc, error) {
	var in doc
	if err := c.Bind(&in); err != nil {
		return nil, c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}
	if in == nil {
		in = doc{}
	}
	return in, nil
}

// createPerson stores a new account. It answers the error response itself
// and returns false when the request is rejected.
func (s *Server) createPerson(c echo.Context, in doc, role domain.Role, verified bool, extra doc) (string, bool, error) {
	var missing []doc
	for _, f := range registrationFields {
		if v, _ := in[f.key].(string); strings.TrimSpace(v) == "" {
			missing = append(missing, doc{"param": f.key, "msg": f.msg})
		}
	}
	if len(missing) > 0 {
		return "", false, c.JSON(http.StatusBadRequest, doc{"errors": missing})
	}

	email := in["email"].(string)
	password := in["password"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.personByEmail(email); taken {
		return "", false, c.JSON(http.StatusBadRequest, doc{"message": "El email ya está registrado"})
	}

	fields := doc{}
	for k, v := range in {
		if !protected[k] && k != "email" && k != "role" {
			fields[k] = v
		}
	}
	for k, v := range extra {
		fields[k] = v
	}
	return s.addPerson(role, email, password, verified, fields), true, nil
}

func (s *Server) register(c echo.Context) error {
	in, err := bindDoc(c)
	if in == nil {
		return err
	}
	if _, ok, err := s.createPerson(c, in, domain.RoleClient, false, nil); !ok {
		return err
	}
	return c.JSON(http.StatusCreated, doc{"message": "Usuario registrado. Revisa tu correo para verificar la cuenta"})
}

func (s *Server) verifyEmail(c echo.Context) error {
	var in struct {
		Email  string `json:"email"`
		Codigo string `json:"codigo"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.personByEmail(in.Email)
	if !ok {
		return c.JSON(http.StatusNotFound, doc{"message": "Usuario no encontrado"})
	}
	acct := s.accounts[id]
	if acct.code != in.Codigo {
		return c.JSON(http.StatusBadRequest, doc{"message": "Código de verificación inválido"})
	}
	acct.verified = true
	return c.JSON(http.StatusOK, doc{"message": "Correo verificado"})
}

func (s *Server) resendCode(c echo.Context) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personByEmail(in.Email); !ok {
		return c.JSON(http.StatusNotFound, doc{"message": "Usuario no encontrado"})
	}
	s.resent[in.Email]++
	return c.JSON(http.StatusOK, doc{"message": "Código reenviado"})
}

// ── Profile and people ────────────────────────────────────────────────────────

func (s *Server) getProfile(c echo.Context) error {
	id, _ := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.people.get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, doc{"message": "Usuario no encontrado"})
	}
	return c.JSON(http.StatusOK, d)
}

func merge(dst, patch doc) {
	for k, v := range patch {
		if !protected[k] {
			dst[k] = v
		}
	}
}

func (s *Server) updateProfile(c echo.Context) error {
	id, _ := caller(c)
	var patch doc
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.people.get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, doc{"message": "Usuario no encontrado"})
	}
	merge(d, patch)
	return c.JSON(http.StatusOK, d)
}

func (s *Server) updateUser(c echo.Context) error {
	var patch doc
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	d, ok := s.people.get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, doc{"message": "Usuario no encontrado"})
	}
	if pw, _ := patch["password"].(string); pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, doc{"message": "Error interno"})
		}
		s.accounts[id].hash = string(hash)
	}
	merge(d, patch)
	return c.JSON(http.StatusOK, d)
}

func (s *Server) listPeople(role domain.Role, approved *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(http.StatusOK, s.people.filter(func(d doc) bool {
			if d["rol"] != string(role) {
				return false
			}
			return approved == nil || (d["aprobado"] == true) == *approved
		}))
	}
}

func (s *Server) updatePerson(role domain.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch doc
		if err := c.Bind(&patch); err != nil {
			return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		d, ok := s.people.get(c.Param("id"))
		if !ok || d["rol"] != string(role) {
			return c.JSON(http.StatusNotFound, doc{"message": "Usuario no encontrado"})
		}
		merge(d, patch)
		return c.JSON(http.StatusOK, d)
	}
}

func (s *Server) deletePerson(role domain.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		id := c.Param("id")
		d, ok := s.people.get(id)
		if !ok || d["rol"] != string(role) {
			return c.JSON(http.StatusNotFound, doc{"message": "Usuario no encontrado"})
		}
		s.people.remove(id)
		delete(s.accounts, id)
		return c.NoContent(http.StatusNoContent)
	}
}

func (s *Server) registerClient(c echo.Context) error {
	in, err := bindDoc(c)
	if in == nil {
		return err
	}
	id, ok, err := s.createPerson(c, in, domain.RoleClient, true, nil)
	if !ok {
		return err
	}
	return c.JSON(http.StatusCreated, doc{"_id": id})
}

func (s *Server) registerTechnician(c echo.Context) error {
	_, callerRole := caller(c)

	in, err := bindDoc(c)
	if in == nil {
		return err
	}

	// The role arrives as "rol" or "role".
	rol, _ := in["rol"].(string)
	if rol == "" {
		rol, _ = in["role"].(string)
	}
	role := domain.Role(rol)
	if role == "" {
		role = domain.RoleTechnician
	}
	if role != domain.RoleTechnician && role != domain.RoleAdmin {
		return c.JSON(http.StatusBadRequest, doc{"message": "Rol inválido"})
	}
	if role == domain.RoleAdmin && callerRole != domain.RoleAdmin {
		return c.JSON(http.StatusForbidden, doc{"message": "Solo un administrador puede crear administradores"})
	}

	extra := doc{}
	if role == domain.RoleTechnician {
		extra["aprobado"] = callerRole == domain.RoleAdmin
	}
	id, ok, err := s.createPerson(c, in, role, true, extra)
	if !ok {
		return err
	}
	return c.JSON(http.StatusCreated, doc{"_id": id})
}

func (s *Server) approveTechnician(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.people.get(c.Param("id"))
	if !ok || d["rol"] != string(domain.RoleTechnician) {
		return c.JSON(http.StatusNotFound, doc{"message": "Técnico no encontrado"})
	}
	d["aprobado"] = true
	return c.JSON(http.StatusOK, d)
}

// ── Vehicles ──────────────────────────────────────────────────────────────────

func (s *Server) listVehicles(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.vehicles.filter(nil))
}

func (s *Server) placaTaken(placa, except string) bool {
	for _, d := range s.vehicles.filter(nil) {
		if d["_id"] != except && strings.EqualFold(d["placa"].(string), placa) {
			return true
		}
	}
	return false
}

func (s *Server) createVehicle(c echo.Context) error {
	var in doc
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"error": "Cuerpo inválido"})
	}
	for _, k := range []string{"marca", "modelo", "placa"} {
		if v, _ := in[k].(string); strings.TrimSpace(v) == "" {
			return c.JSON(http.StatusBadRequest, doc{"error": "Marca, modelo y placa son obligatorios"})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.placaTaken(in["placa"].(string), "") {
		return c.JSON(http.StatusBadRequest, doc{"error": "La placa ya está registrada"})
	}
	delete(in, "_id")
	s.vehicles.insert(in)
	return c.JSON(http.StatusCreated, in)
}

func (s *Server) updateVehicle(c echo.Context) error {
	var patch doc
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"error": "Cuerpo inválido"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	d, ok := s.vehicles.get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, doc{"error": "Vehículo no encontrado"})
	}
	if placa, _ := patch["placa"].(string); placa != "" && s.placaTaken(placa, id) {
		return c.JSON(http.StatusBadRequest, doc{"error": "La placa ya está registrada"})
	}
	merge(d, patch)
	return c.JSON(http.StatusOK, d)
}

func (s *Server) deleteFrom(coll func() *collection, notFound string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !coll().remove(c.Param("id")) {
			return c.JSON(http.StatusNotFound, doc{"message": notFound})
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// ── Reservations ──────────────────────────────────────────────────────────────

// populate expands cliente and vehiculo ids the way the backend does.
func (s *Server) populate(r doc) doc {
	out := clone(r)
	if id, _ := r["cliente"].(string); id != "" {
		if p, ok := s.people.get(id); ok {
			out["cliente"] = doc{"_id": id, "nombre": p["nombre"], "apellido": p["apellido"], "email": p["email"]}
		}
	}
	if id, _ := r["vehiculo"].(string); id != "" {
		if v, ok := s.vehicles.get(id); ok {
			out["vehiculo"] = doc{"_id": id, "marca": v["marca"], "modelo": v["modelo"], "placa": v["placa"]}
		}
	}
	return out
}

func (s *Server) listReservations(c echo.Context) error {
	id, role := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.reservations.filter(func(d doc) bool {
		return role == domain.RoleAdmin || d["cliente"] == id
	})
	out := make([]doc, 0, len(list))
	for _, r := range list {
		out = append(out, s.populate(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createReservation(c echo.Context) error {
	id, _ := caller(c)
	var in doc
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}
	for _, k := range []string{"descripcion", "vehiculo", "fecha_inicio", "fecha_fin"} {
		if v, _ := in[k].(string); strings.TrimSpace(v) == "" {
			return c.JSON(http.StatusBadRequest, doc{"message": "Todos los campos son obligatorios"})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles.get(in["vehiculo"].(string)); !ok {
		return c.JSON(http.StatusBadRequest, doc{"message": "Vehículo no encontrado"})
	}
	r := s.newReservation(doc{
		"descripcion":  in["descripcion"],
		"cliente":      id,
		"vehiculo":     in["vehiculo"],
		"fecha_inicio": in["fecha_inicio"],
		"fecha_fin":    in["fecha_fin"],
	}, time.Now())
	s.reservations.insert(r)
	return c.JSON(http.StatusCreated, s.populate(r))
}

func (s *Server) ownedReservation(c echo.Context) (doc, error) {
	id, role := caller(c)
	r, ok := s.reservations.get(c.Param("id"))
	if !ok {
		return nil, c.JSON(http.StatusNotFound, doc{"message": "Reserva no encontrada"})
	}
	if role != domain.RoleAdmin && r["cliente"] != id {
		return nil, c.JSON(http.StatusForbidden, doc{"message": "Acceso denegado"})
	}
	return r, nil
}

func (s *Server) updateReservation(c echo.Context) error {
	var patch doc
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.ownedReservation(c)
	if r == nil {
		return err
	}
	if _, role := caller(c); role != domain.RoleAdmin {
		delete(patch, "status")
		delete(patch, "cliente")
	}
	merge(r, patch)
	return c.JSON(http.StatusOK, s.populate(r))
}

func (s *Server) deleteReservation(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.ownedReservation(c)
	if r == nil {
		return err
	}
	s.reservations.remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// ── Tickets ───────────────────────────────────────────────────────────────────

func (s *Server) myTickets(c echo.Context) error {
	id, _ := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.tickets.filter(func(d doc) bool { return d["tecnico"] == id }))
}

func (s *Server) pendingTickets(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.tickets.filter(func(d doc) bool { return d["tecnico"] == "" }))
}

func (s *Server) takeTicket(c echo.Context) error {
	id, _ := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets.get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, doc{"message": "Ticket no encontrado"})
	}
	if t["tecnico"] != "" {
		return c.JSON(http.StatusBadRequest, doc{"message": "El ticket ya fue asignado"})
	}
	t["tecnico"] = id
	t["status"] = "en proceso"
	return c.JSON(http.StatusOK, t)
}

func (s *Server) updateTicket(c echo.Context) error {
	id, _ := caller(c)
	var patch doc
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, doc{"message": "Cuerpo inválido"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets.get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, doc{"message": "Ticket no encontrado"})
	}
	if t["tecnico"] != id {
		return c.JSON(http.StatusForbidden, doc{"message": "Acceso denegado"})
	}
	delete(patch, "tecnico")
	delete(patch, "cliente")
	merge(t, patch)
	return c.JSON(http.StatusOK, t)
}
